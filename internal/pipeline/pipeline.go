package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/internal/store"
	"github.com/sells-group/leadflow/pkg/propdata"
)

// DefaultMaxPages caps how many provider pages one acquisition will walk
// before giving up on filling the requested count.
const DefaultMaxPages = 10

// AcquireRequest is one caller invocation of the pipeline.
type AcquireRequest struct {
	UserID   string
	Criteria model.SearchCriteria
	Count    int
}

// Settings tunes pagination behavior per deployment.
type Settings struct {
	PageSize int
	MaxPages int
}

func (s Settings) withDefaults() Settings {
	if s.PageSize <= 0 {
		s.PageSize = 50
	}
	if s.PageSize > propdata.MaxPageSize {
		s.PageSize = propdata.MaxPageSize
	}
	if s.MaxPages <= 0 {
		s.MaxPages = DefaultMaxPages
	}
	return s
}

// Orchestrator runs the full acquisition flow: search the provider from the
// user's saved cursor, normalize and filter each raw record, skip anything
// already delivered, persist survivors, and advance the cursor by the raw
// records consumed.
type Orchestrator struct {
	provider   propdata.Client
	store      store.Store
	normalizer *Normalizer
	settings   Settings
}

// NewOrchestrator wires the pipeline's collaborators. The provider client is
// injected rather than constructed here so tests can swap in a fake.
func NewOrchestrator(provider propdata.Client, st store.Store, n *Normalizer, settings Settings) *Orchestrator {
	return &Orchestrator{
		provider:   provider,
		store:      st,
		normalizer: n,
		settings:   settings.withDefaults(),
	}
}

// Acquire fetches, normalizes, filters, dedups, and persists leads until the
// requested count is met, the provider runs dry, or the page cap is hit.
// Pages are fetched sequentially: the cursor must reflect exactly how many
// raw records were consumed, and concurrent fetches would make that count
// ambiguous. A provider failure after the first page returns the partial
// batch rather than discarding progress.
func (o *Orchestrator) Acquire(ctx context.Context, req AcquireRequest) (*model.AcquireResult, error) {
	if req.UserID == "" {
		return nil, eris.New("pipeline: user id is required")
	}
	if req.Count <= 0 {
		return nil, eris.Errorf("pipeline: count must be positive, got %d", req.Count)
	}

	start := time.Now()
	criteriaKey := req.Criteria.Key()
	filters := BuildFilters(req.Criteria)
	filter := NewQualityFilter(req.Criteria)

	log := zap.L().With(
		zap.String("user_id", req.UserID),
		zap.String("criteria", criteriaKey),
		zap.Int("count", req.Count),
	)

	delivered, err := o.deliveredSet(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	result := &model.AcquireResult{Delivered: []model.CanonicalProperty{}}
	status := model.AcquisitionComplete

pages:
	for page := 0; page < o.settings.MaxPages && len(result.Delivered) < req.Count; page++ {
		cursor, err := o.store.GetSkipCursor(ctx, req.UserID, criteriaKey)
		if err != nil {
			return nil, err
		}

		resp, err := o.provider.Search(ctx, filters, cursor, o.settings.PageSize)
		if err != nil {
			if page == 0 {
				return nil, eris.Wrap(err, "pipeline: provider search")
			}
			// Keep what earlier pages already delivered.
			log.Warn("provider failed mid-run, returning partial batch",
				zap.Int("page", page), zap.Error(err))
			status = model.AcquisitionPartial
			break pages
		}

		if len(resp.Records) == 0 {
			status = model.AcquisitionExhausted
			break pages
		}

		for _, raw := range resp.Records {
			result.TotalChecked++

			prop := o.normalizer.Normalize(raw)
			if ok, reason := filter.Accept(prop); !ok {
				result.Filtered++
				log.Debug("record filtered",
					zap.String("reason", reason), zap.String("address", prop.Address))
				continue
			}

			fp := Fingerprint(prop.Address, prop.City, prop.State, prop.ZipCode)
			if delivered[fp] {
				result.Duplicates++
				continue
			}

			prop.Contacts = ExtractContacts(raw)
			if !o.persist(ctx, log, req.UserID, fp, prop) {
				continue
			}

			delivered[fp] = true
			result.Delivered = append(result.Delivered, *prop)
			if len(result.Delivered) == req.Count {
				result.HasMore = cursor+len(resp.Records) < resp.TotalHint || len(resp.Records) == o.settings.PageSize
				break
			}
		}

		// The cursor moves by raw records consumed, not records delivered,
		// so repeated searches progress through the result set even when a
		// page is entirely filtered out.
		if err := o.store.AdvanceSkipCursor(ctx, req.UserID, criteriaKey, len(resp.Records)); err != nil {
			return nil, err
		}

		if len(resp.Records) < o.settings.PageSize {
			if len(result.Delivered) < req.Count {
				status = model.AcquisitionExhausted
			}
			break pages
		}
	}

	if status == model.AcquisitionComplete && len(result.Delivered) < req.Count {
		// Page cap reached with the count unmet. The walk only continues
		// past a page when it came back full, so the provider still has
		// inventory; callers may re-invoke to keep paging.
		status = model.AcquisitionExhausted
		result.HasMore = true
	}
	result.Status = status

	o.audit(ctx, log, req, criteriaKey, result, time.Since(start))

	log.Info("acquisition finished",
		zap.Int("delivered", len(result.Delivered)),
		zap.Int("total_checked", result.TotalChecked),
		zap.Int("filtered", result.Filtered),
		zap.Int("duplicates", result.Duplicates),
		zap.String("status", string(result.Status)),
	)
	return result, nil
}

// persist writes one lead and its delivery row. Failures are logged and the
// record skipped; one bad row must not sink the batch.
func (o *Orchestrator) persist(ctx context.Context, log *zap.Logger, userID, fp string, p *model.CanonicalProperty) bool {
	if _, err := o.store.InsertPropertyIfAbsent(ctx, fp, *p); err != nil {
		log.Error("persist property failed, skipping record",
			zap.String("fingerprint", fp), zap.Error(err))
		return false
	}

	if p.OwnerName != "" {
		owner := model.Owner{Name: p.OwnerName, MailingAddress: p.OwnerMailingAddress}
		if _, err := o.store.InsertOwnerIfAbsent(ctx, owner); err != nil {
			log.Warn("persist owner failed", zap.String("fingerprint", fp), zap.Error(err))
		}
	}
	for _, c := range p.Contacts {
		if err := o.store.InsertContact(ctx, fp, c); err != nil {
			log.Warn("persist contact failed", zap.String("fingerprint", fp), zap.Error(err))
		}
	}

	// The delivery row is what makes the lead count as served; without it the
	// property would be re-offered next run, so a failure here skips the
	// record entirely.
	if err := o.store.InsertLeadDelivery(ctx, userID, fp); err != nil {
		log.Error("persist delivery failed, skipping record",
			zap.String("fingerprint", fp), zap.Error(err))
		return false
	}
	return true
}

func (o *Orchestrator) deliveredSet(ctx context.Context, userID string) (map[string]bool, error) {
	fps, err := o.store.ListDeliveredFingerprints(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(fps))
	for _, fp := range fps {
		set[fp] = true
	}
	return set, nil
}

// audit records the run for reporting. Best effort: a failed audit write
// never fails an otherwise successful acquisition.
func (o *Orchestrator) audit(ctx context.Context, log *zap.Logger, req AcquireRequest, criteriaKey string, r *model.AcquireResult, took time.Duration) {
	a := model.Acquisition{
		ID:           uuid.NewString(),
		UserID:       req.UserID,
		CriteriaKey:  criteriaKey,
		Requested:    req.Count,
		Delivered:    len(r.Delivered),
		TotalChecked: r.TotalChecked,
		Filtered:     r.Filtered,
		DurationMS:   took.Milliseconds(),
		Status:       r.Status,
	}
	if err := o.store.RecordAcquisition(ctx, a); err != nil {
		log.Warn("record acquisition failed", zap.Error(err))
	}
}
