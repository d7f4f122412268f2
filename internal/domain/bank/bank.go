package bank

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ItemType string

const (
	TypeImage    ItemType = "image"
	TypeLogo     ItemType = "logo"
	TypeVideo    ItemType = "video"
	TypeDocument ItemType = "document"
	TypeOther    ItemType = "other"
)

func (t ItemType) Valid() bool {
	switch t {
	case TypeImage, TypeLogo, TypeVideo, TypeDocument, TypeOther:
		return true
	}
	return false
}

// Item is an uploaded asset in an owner's media bank.
type Item struct {
	ID        int64          `json:"id"`
	OwnerID   uuid.UUID      `json:"owner_id"`
	ItemType  ItemType       `json:"item_type"`
	Title     string         `json:"title"`
	FilePath  *string        `json:"file_path"`
	FileType  *string        `json:"file_type"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

func (i *Item) IsImage() bool {
	if i.ItemType == TypeImage || i.ItemType == TypeLogo {
		return true
	}
	return i.FileType != nil && strings.HasPrefix(*i.FileType, "image/")
}

// ObjectPath is the storage key layout for uploads.
func ObjectPath(ownerID uuid.UUID, itemType ItemType, filename string) string {
	return "talent/" + ownerID.String() + "/" + string(itemType) + "/" + filename
}

type Repository interface {
	Save(ctx context.Context, item *Item) error
	// FindByID is not owner-scoped so callers can detect and report
	// cross-owner references.
	FindByID(ctx context.Context, id int64) (*Item, error)
	// SearchByKeywords matches title or file path, case-insensitively, against
	// any keyword, restricted to ownerID.
	SearchByKeywords(ctx context.Context, ownerID uuid.UUID, keywords []string, limit int) ([]*Item, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Item, error)
}

// Role is the semantic slot a reference fills. It drives keyword search when
// a path no longer resolves.
type Role string

const (
	RoleAvatar     Role = "avatar"
	RoleBanner     Role = "banner"
	RoleLogo       Role = "logo"
	RoleIntroVideo Role = "intro_video"
	RoleAttachment Role = "attachment"
)

func (r Role) Keywords() []string {
	switch r {
	case RoleAvatar:
		return []string{"avatar", "logo"}
	case RoleBanner:
		return []string{"banner"}
	case RoleLogo:
		return []string{"logo", "avatar"}
	}
	return nil
}

// InferRole derives a role from a keyword in the path's file name.
func InferRole(path string) Role {
	name := strings.ToLower(path)
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	switch {
	case strings.Contains(name, "banner"):
		return RoleBanner
	case strings.Contains(name, "avatar"):
		return RoleAvatar
	case strings.Contains(name, "logo"):
		return RoleLogo
	}
	return ""
}

// Reference is a logical pointer to a stored asset: either an object-store
// path or a bank item id. Exactly one of Path and ItemID is set.
type Reference struct {
	Path   string `json:"path,omitempty"`
	ItemID int64  `json:"item_id,omitempty"`
	Role   Role   `json:"role,omitempty"`
}

func PathRef(path string, role Role) Reference {
	return Reference{Path: strings.TrimPrefix(path, "/"), Role: role}
}

func ItemRef(id int64, role Role) Reference {
	return Reference{ItemID: id, Role: role}
}

func (r Reference) IsPath() bool { return r.Path != "" }
func (r Reference) IsItem() bool { return r.Path == "" && r.ItemID > 0 }
func (r Reference) IsZero() bool { return r.Path == "" && r.ItemID <= 0 }

// Key identifies the reference target, ignoring role.
func (r Reference) Key() string {
	if r.IsPath() {
		return "path:" + r.Path
	}
	return "item:" + strconv.FormatInt(r.ItemID, 10)
}

func (r Reference) String() string {
	return r.Key()
}
