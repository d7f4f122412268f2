package profile

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	trailingBlanks = regexp.MustCompile(`[ \t]+\n`)
	blankRuns      = regexp.MustCompile(`\n{3,}`)
)

// NormalizeText folds carriage returns to newlines, drops trailing spaces and
// tabs before a newline, collapses runs of three or more newlines to one blank
// line and trims the ends. NormalizeText(NormalizeText(s)) == NormalizeText(s).
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r", "\n")
	s = trailingBlanks.ReplaceAllString(s, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// field is one logical record field. The first key is canonical, the rest are
// aliases older editors wrote.
type field struct {
	keys     []string
	freeText bool
}

var meaningfulFields = map[SectionName][]field{
	SectionSkills: {
		{keys: []string{"name", "skill"}},
	},
	SectionExperience: {
		{keys: []string{"title", "role"}},
		{keys: []string{"company", "organisation", "organization"}},
		{keys: []string{"description"}, freeText: true},
	},
	SectionEducation: {
		{keys: []string{"institution", "school"}},
		{keys: []string{"degree", "qualification"}},
		{keys: []string{"notes"}, freeText: true},
		{keys: []string{"year", "endYear", "end_year"}},
	},
	SectionReferees: {
		{keys: []string{"name"}},
		{keys: []string{"relationship"}},
		{keys: []string{"company"}},
		{keys: []string{"title"}},
		{keys: []string{"email"}},
		{keys: []string{"phone"}},
		{keys: []string{"notes"}, freeText: true},
	},
	SectionProjects: {
		{keys: []string{"name"}},
		{keys: []string{"url"}},
		{keys: []string{"description"}, freeText: true},
	},
	SectionAttachments: {
		{keys: []string{"title", "name"}},
		{keys: []string{"item_type"}},
		{keys: []string{"file_path"}},
		{keys: []string{"description"}, freeText: true},
	},
	SectionFamilyCommunity: {
		{keys: []string{"description"}, freeText: true},
	},
}

// Keys holding references into the media bank.
const (
	KeyAttachmentIDs = "attachmentIds"
	KeyBankItemID    = "id"
	KeyFilePath      = "file_path"
	KeyImageID       = "imageId"
)

// Text returns the first non-blank value among keys, trimmed. Numbers are
// rendered without a fractional part when integral.
func (r Record) Text(keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case float64:
			if t == math.Trunc(t) {
				s = strconv.FormatInt(int64(t), 10)
			} else {
				s = strconv.FormatFloat(t, 'f', -1, 64)
			}
		case int, int64, int32, uint64:
			s = fmt.Sprint(t)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// Meaningful reports whether the record carries a non-blank value in at least
// one of the section's meaningful fields, aliases included.
func Meaningful(section SectionName, r Record) bool {
	for _, f := range meaningfulFields[section] {
		v := r.Text(f.keys...)
		if f.freeText {
			v = NormalizeText(v)
		}
		if v != "" {
			return true
		}
	}
	return false
}

// Canonical returns a copy of r with aliased fields folded into their canonical
// key, free-text fields normalized and attachment ids coerced.
func Canonical(section SectionName, r Record) Record {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	for _, f := range meaningfulFields[section] {
		v := r.Text(f.keys...)
		for _, k := range f.keys {
			delete(out, k)
		}
		if f.freeText {
			v = NormalizeText(v)
		}
		if v != "" {
			out[f.keys[0]] = v
		}
	}
	if _, ok := r[KeyAttachmentIDs]; ok {
		ids := AttachmentIDs(r)
		if len(ids) == 0 {
			delete(out, KeyAttachmentIDs)
		} else {
			out[KeyAttachmentIDs] = ids
		}
	}
	return out
}

// AttachmentIDs coerces the record's attachmentIds (array or scalar) to
// positive integer bank ids, dropping anything else.
func AttachmentIDs(r Record) []int64 {
	raw, ok := r[KeyAttachmentIDs]
	if !ok || raw == nil {
		return nil
	}
	var values []any
	switch t := raw.(type) {
	case []any:
		values = t
	case []int64:
		for _, v := range t {
			values = append(values, v)
		}
	default:
		values = []any{t}
	}
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		if id, ok := CoerceID(v); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// CoerceID accepts positive finite integral numbers, or strings holding one.
func CoerceID(v any) (int64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint64:
		f = float64(t)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 || f != math.Trunc(f) || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

var legacyPlatforms = []struct {
	platform string
	keys     []string
}{
	{"linkedin", []string{"linkedin"}},
	{"github", []string{"github"}},
	{"youtube", []string{"youtube"}},
	{"website", []string{"website"}},
	{"x", []string{"twitter", "x"}},
	{"instagram", []string{"instagram"}},
	{"facebook", []string{"facebook"}},
	{"tiktok", []string{"tiktok"}},
	{"behance", []string{"behance"}},
	{"dribbble", []string{"dribbble"}},
}

// CleanSocialLinks merges explicit links with legacy single-field links for
// platforms not already listed, drops entries missing a platform or url,
// prefixes a scheme where missing and removes duplicates by platform and url,
// case-insensitively.
func CleanSocialLinks(links []SocialLink, legacy map[string]string) []SocialLink {
	all := make([]SocialLink, 0, len(links)+len(legacy))
	all = append(all, links...)
	present := make(map[string]bool, len(links))
	for _, l := range links {
		present[strings.ToLower(strings.TrimSpace(l.Platform))] = true
	}
	for _, lp := range legacyPlatforms {
		if present[lp.platform] {
			continue
		}
		for _, k := range lp.keys {
			if v := strings.TrimSpace(legacy[k]); v != "" {
				all = append(all, SocialLink{Platform: lp.platform, URL: v})
				break
			}
		}
	}

	seen := make(map[string]struct{}, len(all))
	out := make([]SocialLink, 0, len(all))
	for _, l := range all {
		u := strings.TrimSpace(l.URL)
		platform := strings.TrimSpace(l.Platform)
		if u == "" || platform == "" {
			continue
		}
		lower := strings.ToLower(u)
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			u = "https://" + u
		}
		key := strings.ToLower(platform) + "|" + strings.ToLower(u)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, SocialLink{Platform: platform, URL: u})
	}
	return out
}
