package disclosure

import (
	"github.com/google/uuid"

	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
	"github.com/khoahotran/talent-portfolio/internal/domain/profile"
)

type ViewerKind string

const (
	ViewerOwner     ViewerKind = "owner"
	ViewerRecipient ViewerKind = "recipient"
)

// Viewer is who a document is composed for. The owner's own preview bypasses
// the share gate; every other viewer is a recipient.
type Viewer struct {
	Kind ViewerKind `json:"kind"`
}

func Owner() Viewer     { return Viewer{Kind: ViewerOwner} }
func Recipient() Viewer { return Viewer{Kind: ViewerRecipient} }

func (v Viewer) IsOwner() bool { return v.Kind == ViewerOwner }

type Intro struct {
	Bio string `json:"bio"`
}

type Item struct {
	ID          profile.ItemID   `json:"id"`
	Fields      profile.Record   `json:"fields"`
	Attachments []bank.Reference `json:"attachments,omitempty"`
}

type Section struct {
	Name  profile.SectionName `json:"name"`
	Items []Item              `json:"items"`
}

type Media struct {
	Avatar     *bank.Reference `json:"avatar,omitempty"`
	Banner     *bank.Reference `json:"banner,omitempty"`
	IntroVideo *bank.Reference `json:"intro_video,omitempty"`
}

// Document is the filtered projection of a portfolio that a presentation layer
// may render. It carries logical references only, never URLs.
type Document struct {
	OwnerID    uuid.UUID `json:"owner_id"`
	TemplateID string    `json:"template_id,omitempty"`
	Name       string    `json:"name"`
	Title      string    `json:"title"`

	// Order lists the visible main-stream sections in render order. Social
	// never appears here; it is placed in the sidebar slot.
	Order    []profile.SectionName `json:"order"`
	Intro    *Intro                `json:"intro,omitempty"`
	Sections []Section             `json:"sections"`
	Social   []profile.SocialLink  `json:"social,omitempty"`
	Media    Media                 `json:"media"`
}

func (d *Document) Section(name profile.SectionName) (*Section, bool) {
	for i := range d.Sections {
		if d.Sections[i].Name == name {
			return &d.Sections[i], true
		}
	}
	return nil, false
}

// References lists every media and attachment reference, deduplicated by
// target, in document order.
func (d *Document) References() []bank.Reference {
	seen := map[string]bool{}
	var refs []bank.Reference
	add := func(r *bank.Reference) {
		if r == nil || r.IsZero() || seen[r.Key()] {
			return
		}
		seen[r.Key()] = true
		refs = append(refs, *r)
	}
	add(d.Media.Avatar)
	add(d.Media.Banner)
	add(d.Media.IntroVideo)
	for _, s := range d.Sections {
		for _, it := range s.Items {
			for i := range it.Attachments {
				add(&it.Attachments[i])
			}
		}
	}
	return refs
}

// Resolved is a minted URL for one reference. Missing marks a reference every
// strategy failed on, which renders as a placeholder.
type Resolved struct {
	URL      string `json:"url,omitempty"`
	Strategy string `json:"strategy"`
	Missing  bool   `json:"missing"`
}
