package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/ShivaNagula00/toddy-orders/internal/domain"
	pfirestore "github.com/ShivaNagula00/toddy-orders/internal/platform/firestore"
	"github.com/ShivaNagula00/toddy-orders/internal/repositories"
)

const (
	settingsCollection = "settings"
	shopDocumentID     = "shop"
	authDocumentID     = "auth"
)

type shopSettingsDocument struct {
	Prices    map[string]int `firestore:"prices"`
	Inventory map[string]int `firestore:"inventory"`
	UpdatedAt time.Time      `firestore:"updatedAt,serverTimestamp"`
}

func (d shopSettingsDocument) toDomain() domain.ShopSettings {
	settings := domain.ShopSettings{
		Prices:    make(domain.PriceTable, len(d.Prices)),
		Inventory: make(domain.StockTable, len(d.Inventory)),
		UpdatedAt: d.UpdatedAt,
	}
	for k, v := range d.Prices {
		settings.Prices[domain.ToddyType(k)] = v
	}
	for k, v := range d.Inventory {
		settings.Inventory[domain.ToddyType(k)] = v
	}
	return settings
}

type ownerCredentialsDocument struct {
	Username  string    `firestore:"username"`
	Password  string    `firestore:"password"`
	UpdatedAt time.Time `firestore:"updatedAt,serverTimestamp"`
}

// SettingsRepository implements repositories.SettingsRepository over the
// singleton settings documents.
type SettingsRepository struct {
	provider *pfirestore.Provider
	shop     *pfirestore.BaseRepository[shopSettingsDocument]
	auth     *pfirestore.BaseRepository[ownerCredentialsDocument]
}

var _ repositories.SettingsRepository = (*SettingsRepository)(nil)

// NewSettingsRepository constructs a Firestore-backed settings repository.
func NewSettingsRepository(provider *pfirestore.Provider) (*SettingsRepository, error) {
	if provider == nil {
		return nil, errors.New("settings repository requires firestore provider")
	}
	return &SettingsRepository{
		provider: provider,
		shop:     pfirestore.NewBaseRepository[shopSettingsDocument](provider, settingsCollection, nil, nil),
		auth:     pfirestore.NewBaseRepository[ownerCredentialsDocument](provider, settingsCollection, nil, nil),
	}, nil
}

// GetShopSettings fetches the shop settings document.
func (r *SettingsRepository) GetShopSettings(ctx context.Context) (domain.ShopSettings, error) {
	doc, err := r.shop.Get(ctx, shopDocumentID)
	if err != nil {
		return domain.ShopSettings{}, err
	}
	return doc.Data.toDomain(), nil
}

// MergeShopSettings applies a partial update to the shop settings document,
// creating it when absent. Fields missing from the patch stay untouched.
func (r *SettingsRepository) MergeShopSettings(ctx context.Context, patch repositories.SettingsPatch) error {
	payload := map[string]any{
		"updatedAt": firestore.ServerTimestamp,
	}
	if patch.Prices != nil {
		prices := make(map[string]int, len(patch.Prices))
		for k, v := range patch.Prices {
			prices[string(k)] = v
		}
		payload["prices"] = prices
	}
	if patch.Inventory != nil {
		inventory := make(map[string]int, len(patch.Inventory))
		for k, v := range patch.Inventory {
			inventory[string(k)] = v
		}
		payload["inventory"] = inventory
	}

	ref, err := r.shop.DocumentRef(ctx, shopDocumentID)
	if err != nil {
		return err
	}
	if _, err := ref.Set(ctx, payload, firestore.MergeAll); err != nil {
		return pfirestore.WrapError("settings.merge", err)
	}
	return nil
}

// DecrementInventory reduces availability for one variety inside a
// transaction, clamping at zero, and returns the remaining litres. A missing
// settings document falls back to the default stock levels.
func (r *SettingsRepository) DecrementInventory(ctx context.Context, toddyType domain.ToddyType, litres int) (int, error) {
	if !toddyType.Valid() {
		return 0, fmt.Errorf("settings: unknown variety %q", toddyType)
	}
	if litres < 0 {
		return 0, fmt.Errorf("settings: negative decrement %d", litres)
	}

	var remaining int
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.shop.DocumentRef(ctx, shopDocumentID)
		if err != nil {
			return err
		}

		available := domain.DefaultInventory[toddyType]
		var doc shopSettingsDocument

		snapshot, err := tx.Get(ref)
		switch status.Code(err) {
		case codes.NotFound:
			// Fall through with defaults.
		case codes.OK:
			if err := snapshot.DataTo(&doc); err != nil {
				return fmt.Errorf("settings decode %s: %w", shopDocumentID, err)
			}
			if v, ok := doc.Inventory[string(toddyType)]; ok {
				available = v
			}
		default:
			return err
		}

		remaining = available - litres
		if remaining < 0 {
			remaining = 0
		}

		payload := map[string]any{
			"inventory": map[string]any{string(toddyType): remaining},
			"updatedAt": firestore.ServerTimestamp,
		}
		return tx.Set(ref, payload, firestore.MergeAll)
	})
	if err != nil {
		return 0, pfirestore.WrapError("settings.decrement", err)
	}
	return remaining, nil
}

// GetOwnerCredentials fetches the owner login document.
func (r *SettingsRepository) GetOwnerCredentials(ctx context.Context) (domain.OwnerCredentials, error) {
	doc, err := r.auth.Get(ctx, authDocumentID)
	if err != nil {
		return domain.OwnerCredentials{}, err
	}
	return domain.OwnerCredentials{
		Username:  doc.Data.Username,
		Password:  doc.Data.Password,
		UpdatedAt: doc.Data.UpdatedAt,
	}, nil
}

// SetOwnerCredentials overwrites the owner login document.
func (r *SettingsRepository) SetOwnerCredentials(ctx context.Context, creds domain.OwnerCredentials) error {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return errors.New("settings: username and password are required")
	}
	_, err := r.auth.Set(ctx, authDocumentID, ownerCredentialsDocument{
		Username: creds.Username,
		Password: creds.Password,
	})
	return err
}
