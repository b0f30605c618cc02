package pipeline

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/pkg/propdata"
)

// ownerPaths are the locations provider revisions have used for the owner
// sub-object.
var ownerPaths = []string{"owner", "ownerInfo", "contact"}

var titleCaser = cases.Title(language.English)

// CanonicalOwnerName normalizes provider owner names, which usually arrive
// fully uppercased from county records.
func CanonicalOwnerName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(name))
}

// ExtractContacts pulls phone and email candidates from the raw record's
// owner sub-object. Raw phone entries may be bare strings or objects with
// number/type/dnc fields. DNC numbers are retained under their flag, never
// dropped: callers decide whether to dial them.
//
// Best selection: the first non-DNC phone in source order, falling back to
// the first phone when every entry is DNC-flagged; the first syntactically
// valid email.
func ExtractContacts(raw propdata.RawRecord) []model.Contact {
	owner := ownerObject(raw)
	if owner == nil {
		return nil
	}

	contacts := extractPhones(owner)
	markBestPhone(contacts)

	emails := extractEmails(owner)
	for i, email := range emails {
		contacts = append(contacts, model.Contact{Email: email, Best: i == 0})
	}

	return contacts
}

func ownerObject(raw propdata.RawRecord) map[string]any {
	for _, p := range ownerPaths {
		if m, ok := lookup(raw, p).(map[string]any); ok {
			return m
		}
	}
	return nil
}

func extractPhones(owner map[string]any) []model.Contact {
	var entries []any
	for _, key := range []string{"phones", "phoneNumbers"} {
		if list, ok := owner[key].([]any); ok {
			entries = list
			break
		}
	}
	if entries == nil {
		if s, ok := owner["phone"].(string); ok && strings.TrimSpace(s) != "" {
			entries = []any{s}
		}
	}

	var out []model.Contact
	for _, e := range entries {
		switch v := e.(type) {
		case string:
			if num := strings.TrimSpace(v); num != "" {
				out = append(out, model.Contact{Phone: num, PhoneType: model.PhoneUnknown})
			}
		case map[string]any:
			c := model.Contact{
				Phone:     stringField(v, "number", "phone"),
				PhoneType: phoneType(stringField(v, "type", "phoneType")),
				DNC:       boolField(v, "dnc", "doNotCall"),
			}
			if c.Phone != "" {
				out = append(out, c)
			}
		}
	}
	return out
}

// markBestPhone flags the first non-DNC phone, or the first phone outright
// when everything is DNC. The DNC flag survives either way so a DNC "best"
// is visibly off-limits.
func markBestPhone(phones []model.Contact) {
	if len(phones) == 0 {
		return
	}
	for i := range phones {
		if !phones[i].DNC {
			phones[i].Best = true
			return
		}
	}
	phones[0].Best = true
}

func extractEmails(owner map[string]any) []string {
	var candidates []string
	if list, ok := owner["emails"].([]any); ok {
		for _, e := range list {
			if s, ok := e.(string); ok {
				candidates = append(candidates, s)
			}
		}
	}
	if s, ok := owner["email"].(string); ok {
		candidates = append(candidates, s)
	}

	var out []string
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if strings.Contains(c, "@") {
			out = append(out, c)
		}
	}
	return out
}

func phoneType(s string) model.PhoneType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mobile", "cell", "wireless":
		return model.PhoneMobile
	case "landline", "home", "land":
		return model.PhoneLandline
	default:
		return model.PhoneUnknown
	}
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func boolField(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		switch v := m[k].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			s := strings.ToLower(strings.TrimSpace(v))
			if s == "true" || s == "y" || s == "yes" || s == "1" {
				return true
			}
		}
	}
	return false
}
