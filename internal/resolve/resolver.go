// Package resolve maps logical identity fields (SSID, NIN, full name) onto
// the arbitrary column names found in uploaded datasets. It is the only
// place allowed to do fuzzy key lookup against an Entry.
package resolve

import (
	"os"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sahelgroup/recon-cli/internal/tabular"
)

// Logical field names accepted by Resolver.Field.
const (
	FieldSSID       = "ssid"
	FieldNIN        = "nin"
	FieldFullName   = "fullname"
	FieldFirstName  = "firstname"
	FieldMiddleName = "middlename"
	FieldLastName   = "lastname"
)

// Aliases declares the acceptable header spellings per logical field, plus
// synonym folds applied after punctuation stripping so that semantically
// equivalent labels collapse to one token ("Full Name", "BENEFICIARY_NAME"
// and "customer name" all fold to "name").
type Aliases struct {
	// Folds maps a canonical token to the stripped variants that fold
	// into it.
	Folds map[string][]string `yaml:"folds"`
	// Fields maps a logical field to its acceptable header spellings.
	Fields map[string][]string `yaml:"fields"`
}

// DefaultAliases returns the built-in spelling table.
func DefaultAliases() *Aliases {
	return &Aliases{
		Folds: map[string][]string{
			"name": {
				"fullname", "beneficiaryname", "customername",
				"personname", "membername", "nameofbeneficiary",
			},
			"socialsecurity": {
				"ssid", "ssn", "socialsecurityid",
				"socialsecuritynumber", "socialsecurityno",
			},
			"nationalid": {
				"nin", "ninumber", "nationalidnumber",
				"nationalidentificationnumber", "nationalidno",
			},
		},
		Fields: map[string][]string{
			FieldSSID: {
				"ssid", "ssn", "social security id",
				"social security number", "social security no",
			},
			FieldNIN: {
				"nin", "nin number", "national id",
				"national id number", "national identification number",
			},
			FieldFullName: {
				"full name", "name", "beneficiary name",
				"customer name", "person name", "member name",
			},
			FieldFirstName:  {"first name", "firstname", "fname", "given name"},
			FieldMiddleName: {"middle name", "middlename", "mname", "other name"},
			FieldLastName:   {"last name", "lastname", "lname", "surname", "family name"},
		},
	}
}

// LoadAliases reads an alias file and merges it over the defaults.
// A key present in the file replaces the default list for that key.
func LoadAliases(path string) (*Aliases, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "resolve: read alias file %s", path)
	}

	var overlay Aliases
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, eris.Wrapf(err, "resolve: parse alias file %s", path)
	}

	merged := DefaultAliases()
	for canon, variants := range overlay.Folds {
		merged.Folds[canon] = variants
	}
	for field, spellings := range overlay.Fields {
		merged.Fields[field] = spellings
	}
	return merged, nil
}

// Resolver resolves logical fields against entries with tolerant key
// matching. It never errors: a field that cannot be resolved is "".
type Resolver struct {
	folds  map[string]string   // stripped variant -> canonical token
	fields map[string][]string // logical field -> canonical spellings
}

// New builds a Resolver from an alias table.
func New(a *Aliases) *Resolver {
	r := &Resolver{
		folds:  make(map[string]string),
		fields: make(map[string][]string, len(a.Fields)),
	}
	for canon, variants := range a.Folds {
		for _, v := range variants {
			r.folds[stripKey(v)] = canon
		}
		// The canonical token folds to itself.
		r.folds[stripKey(canon)] = canon
	}
	for field, spellings := range a.Fields {
		canon := make([]string, 0, len(spellings))
		for _, s := range spellings {
			canon = append(canon, r.canonKey(s))
		}
		r.fields[field] = canon
	}
	return r
}

// Default returns a Resolver over the built-in alias table.
func Default() *Resolver {
	return New(DefaultAliases())
}

// Lookup returns the normalized value of the first entry key whose
// canonical form matches any of the candidate spellings; "" if none does.
func (r *Resolver) Lookup(e *tabular.Entry, candidates []string) string {
	want := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		want[r.canonKey(c)] = struct{}{}
	}
	for _, key := range e.Keys() {
		if _, ok := want[r.canonKey(key)]; ok {
			v, _ := e.Get(key)
			return tabular.Normalize(v)
		}
	}
	return ""
}

// Field resolves a logical field using the configured spellings.
func (r *Resolver) Field(e *tabular.Entry, field string) string {
	spellings, ok := r.fields[field]
	if !ok {
		return ""
	}
	return r.Lookup(e, spellings)
}

// FullName resolves the candidate's full name: a direct full-name column
// when present, otherwise the non-empty first/middle/last parts joined with
// single spaces. Returns "" when no name material exists at all.
func (r *Resolver) FullName(e *tabular.Entry) string {
	if name := r.Field(e, FieldFullName); name != "" {
		return name
	}

	parts := make([]string, 0, 3)
	for _, f := range []string{FieldFirstName, FieldMiddleName, FieldLastName} {
		if p := r.Field(e, f); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// canonKey lowercases, strips non-alphanumerics, then applies synonym folds.
func (r *Resolver) canonKey(raw string) string {
	stripped := stripKey(raw)
	if canon, ok := r.folds[stripped]; ok {
		return canon
	}
	return stripped
}

func stripKey(raw string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(raw) {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			b.WriteRune(c)
		}
	}
	return b.String()
}
