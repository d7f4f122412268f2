package bank

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/talent-portfolio/internal/domain/bank"
	"github.com/khoahotran/talent-portfolio/internal/testutil/memstore"
	"github.com/khoahotran/talent-portfolio/pkg/apperror"
	"github.com/khoahotran/talent-portfolio/pkg/logger"
)

func TestUploadItem(t *testing.T) {
	repo := memstore.NewBank()
	store := memstore.NewObjectStore()
	events := &memstore.Events{}
	uc := NewUploadItemUseCase(repo, store, events, logger.NewNop())
	owner := uuid.New()

	out, err := uc.Execute(context.Background(), UploadItemInput{
		OwnerID:     owner,
		File:        strings.NewReader("png bytes"),
		Size:        9,
		Filename:    `C:\Users\ada\Company Logo.png`,
		ContentType: "image/png",
		ItemType:    bank.TypeLogo,
	})
	require.NoError(t, err)

	item := out.Item
	assert.Equal(t, int64(1), item.ID)
	assert.Equal(t, "Company Logo.png", item.Title, "title defaults to the file name")
	want := "talent/" + owner.String() + "/logo/Company Logo.png"
	assert.Equal(t, want, *item.FilePath)
	assert.Equal(t, "image/png", *item.FileType)
	assert.True(t, store.Has(want))

	found, err := repo.SearchByKeywords(context.Background(), owner, []string{"LOGO"}, 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	assert.Eventually(t, func() bool { return len(events.BankItems()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, want, events.BankItems()[0].FilePath)
}

func TestUploadItem_Validation(t *testing.T) {
	uc := NewUploadItemUseCase(memstore.NewBank(), memstore.NewObjectStore(), nil, logger.NewNop())
	_, err := uc.Execute(context.Background(), UploadItemInput{OwnerID: uuid.New(), Filename: "a.png", ItemType: "gif", File: strings.NewReader("")})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = uc.Execute(context.Background(), UploadItemInput{OwnerID: uuid.New(), Filename: "/", ItemType: bank.TypeImage, File: strings.NewReader("")})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestUploadItem_SaveFailureRemovesObject(t *testing.T) {
	repo := memstore.NewBank()
	repo.Err = errors.New("insert failed")
	store := memstore.NewObjectStore()
	uc := NewUploadItemUseCase(repo, store, nil, logger.NewNop())

	_, err := uc.Execute(context.Background(), UploadItemInput{OwnerID: uuid.New(), File: strings.NewReader("x"), Filename: "cv.pdf", ItemType: bank.TypeDocument})
	require.Error(t, err)
	assert.Eventually(t, func() bool { return len(store.Deleted()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestUploadItem_UploadFailureIsInternal(t *testing.T) {
	store := memstore.NewObjectStore()
	store.UploadErr = errors.New("bucket missing")
	uc := NewUploadItemUseCase(memstore.NewBank(), store, nil, logger.NewNop())

	_, err := uc.Execute(context.Background(), UploadItemInput{OwnerID: uuid.New(), File: strings.NewReader("x"), Filename: "cv.pdf", ItemType: bank.TypeDocument})
	assert.ErrorIs(t, err, apperror.ErrInternal)
}

func TestListItems(t *testing.T) {
	repo := memstore.NewBank()
	owner := uuid.New()
	for i := 0; i < 3; i++ {
		repo.Add(bank.Item{OwnerID: owner, ItemType: bank.TypeImage, Title: "img", CreatedAt: time.Unix(int64(i), 0)})
	}
	repo.Add(bank.Item{OwnerID: uuid.New(), ItemType: bank.TypeImage})

	out, err := NewListItemsUseCase(repo).Execute(context.Background(), ListItemsInput{OwnerID: owner, Limit: 2})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Equal(t, int64(3), out.Items[0].ID, "newest first")
}
