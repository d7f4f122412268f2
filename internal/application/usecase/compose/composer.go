package compose

import (
	"strings"

	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
	"github.com/khoahotran/talent-portfolio/internal/domain/disclosure"
	"github.com/khoahotran/talent-portfolio/internal/domain/profile"
	"github.com/khoahotran/talent-portfolio/internal/domain/share"
	tmpl "github.com/khoahotran/talent-portfolio/internal/domain/template"
)

type Input struct {
	Document *profile.Document
	// Share nil discloses nothing to a recipient.
	Share *share.Configuration
	// Template nil applies no template refinement.
	Template *tmpl.State
	Viewer   disclosure.Viewer
	// Resolvable decides whether a reference can keep an otherwise blank item
	// alive. When nil every well-formed reference counts.
	Resolvable func(bank.Reference) bool
}

// ComputeVisible applies the share gate, then the template gate, then the
// per-item gate, and normalizes free text. It is a pure function of its input.
func ComputeVisible(in Input) *disclosure.Document {
	doc := in.Document
	if doc == nil {
		doc = &profile.Document{}
	}
	out := &disclosure.Document{
		OwnerID:  doc.OwnerID,
		Name:     strings.TrimSpace(doc.Name),
		Title:    strings.TrimSpace(doc.Title),
		Order:    []profile.SectionName{},
		Sections: []disclosure.Section{},
	}
	if in.Template != nil {
		out.TemplateID = in.Template.TemplateID
	}

	visible := func(name profile.SectionName) bool {
		if !in.Viewer.IsOwner() && !in.Share.Allows(name) {
			return false
		}
		return in.Template == nil || in.Template.Includes(name)
	}

	for _, name := range renderOrder(doc, in.Template) {
		if name == profile.SectionSocial || !visible(name) {
			continue
		}
		if name == profile.SectionIntro {
			if bio := profile.NormalizeText(doc.Bio); bio != "" {
				out.Intro = &disclosure.Intro{Bio: bio}
				out.Order = append(out.Order, name)
			}
			continue
		}
		items := visibleItems(doc, name, in.Template, in.Resolvable)
		if len(items) == 0 {
			continue
		}
		out.Sections = append(out.Sections, disclosure.Section{Name: name, Items: items})
		out.Order = append(out.Order, name)
	}

	if visible(profile.SectionSocial) {
		if links := profile.CleanSocialLinks(doc.SocialLinks, doc.LegacySocial); len(links) > 0 {
			out.Social = links
		}
	}

	out.Media = visibleMedia(doc, in)
	return out
}

// renderOrder starts from the template's order, else the document's, drops
// unknown and repeated names, and appends any known section left out.
func renderOrder(doc *profile.Document, state *tmpl.State) []profile.SectionName {
	base := doc.Order()
	if state != nil && len(state.SectionOrder) > 0 {
		base = state.SectionOrder
	}
	seen := make(map[profile.SectionName]bool, len(profile.DefaultSectionOrder))
	order := make([]profile.SectionName, 0, len(profile.DefaultSectionOrder))
	for _, n := range append(append([]profile.SectionName(nil), base...), profile.DefaultSectionOrder...) {
		if !n.Valid() || seen[n] {
			continue
		}
		seen[n] = true
		order = append(order, n)
	}
	return order
}

func visibleItems(doc *profile.Document, name profile.SectionName, state *tmpl.State, resolvable func(bank.Reference) bool) []disclosure.Item {
	sec := doc.Section(name)
	if sec == nil {
		return nil
	}
	var items []disclosure.Item
	for _, it := range sec.Items() {
		if state != nil && !state.Selected(name, it.ID) {
			continue
		}
		refs := itemReferences(name, it.Record)
		if !profile.Meaningful(name, it.Record) && !anyResolvable(refs, resolvable) {
			continue
		}
		items = append(items, disclosure.Item{
			ID:          it.ID,
			Fields:      profile.Canonical(name, it.Record),
			Attachments: refs,
		})
	}
	return items
}

func anyResolvable(refs []bank.Reference, resolvable func(bank.Reference) bool) bool {
	for _, r := range refs {
		if resolvable == nil || resolvable(r) {
			return true
		}
	}
	return false
}

func itemReferences(name profile.SectionName, r profile.Record) []bank.Reference {
	switch name {
	case profile.SectionAttachments:
		if id, ok := profile.CoerceID(r[profile.KeyBankItemID]); ok {
			return []bank.Reference{bank.ItemRef(id, bank.RoleAttachment)}
		}
		if p := r.Text(profile.KeyFilePath); p != "" {
			return []bank.Reference{bank.PathRef(p, bank.RoleAttachment)}
		}
		return nil
	case profile.SectionFamilyCommunity:
		if id, ok := profile.CoerceID(r[profile.KeyImageID]); ok {
			return []bank.Reference{bank.ItemRef(id, bank.RoleAttachment)}
		}
		return nil
	}
	ids := profile.AttachmentIDs(r)
	if len(ids) == 0 {
		return nil
	}
	refs := make([]bank.Reference, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, bank.ItemRef(id, bank.RoleAttachment))
	}
	return refs
}

func visibleMedia(doc *profile.Document, in Input) disclosure.Media {
	var m disclosure.Media
	if in.Viewer.IsOwner() {
		if doc.Media.AvatarPath != nil {
			ref := bank.PathRef(*doc.Media.AvatarPath, bank.RoleAvatar)
			m.Avatar = &ref
		}
		if doc.Media.BannerPath != nil {
			ref := bank.PathRef(*doc.Media.BannerPath, bank.RoleBanner)
			m.Banner = &ref
		}
		if doc.Media.IntroVideoID != nil {
			ref := bank.ItemRef(*doc.Media.IntroVideoID, bank.RoleIntroVideo)
			m.IntroVideo = &ref
		}
	} else {
		m.Avatar = in.Share.AvatarRef()
		m.Banner = in.Share.BannerRef()
		m.IntroVideo = in.Share.IntroVideoRef()
	}
	if in.Template != nil {
		if !in.Template.IncludeAvatar {
			m.Avatar = nil
		}
		if !in.Template.IncludeBanner {
			m.Banner = nil
		}
		if !in.Template.IncludeIntroVideo {
			m.IntroVideo = nil
		}
	}
	return m
}
