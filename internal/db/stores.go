package db

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var ErrStoreNotFound = errors.New("store not found")

// ActiveStores returns every enabled store with its connection preloaded.
func (h *Handle) ActiveStores() ([]Store, error) {
	var stores []Store
	err := h.DB.
		Preload("MSSQLConnection").
		Preload("ShopifyConnection").
		Where("is_active = ?", true).
		Order("id").
		Find(&stores).Error
	return stores, err
}

func (h *Handle) AllStores() ([]Store, error) {
	var stores []Store
	err := h.DB.
		Preload("MSSQLConnection").
		Preload("ShopifyConnection").
		Order("id").
		Find(&stores).Error
	return stores, err
}

func (h *Handle) StoreByID(id uint) (*Store, error) {
	var store Store
	err := h.DB.
		Preload("MSSQLConnection").
		Preload("ShopifyConnection").
		Where("id = ?", id).
		Take(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (h *Handle) CreateMSSQLStore(name string, conn MSSQLConnection, active bool) (*Store, error) {
	store := Store{Name: strings.TrimSpace(name), StoreType: StoreTypeMSSQL, IsActive: active}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&store).Error; err != nil {
			return err
		}
		conn.StoreID = store.ID
		return tx.Create(&conn).Error
	})
	if err != nil {
		return nil, err
	}
	store.MSSQLConnection = &conn
	return &store, nil
}

func (h *Handle) CreateShopifyStore(name string, conn ShopifyConnection, active bool) (*Store, error) {
	var existing ShopifyConnection
	if err := h.DB.Where("shop_domain = ?", conn.ShopDomain).Take(&existing).Error; err == nil {
		return nil, fmt.Errorf("shop domain %q already exists", conn.ShopDomain)
	}

	store := Store{Name: strings.TrimSpace(name), StoreType: StoreTypeShopify, IsActive: active}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&store).Error; err != nil {
			return err
		}
		conn.StoreID = store.ID
		return tx.Create(&conn).Error
	})
	if err != nil {
		return nil, err
	}
	store.ShopifyConnection = &conn
	return &store, nil
}

func (h *Handle) ToggleStore(id uint) (*Store, error) {
	store, err := h.StoreByID(id)
	if err != nil {
		return nil, err
	}
	store.IsActive = !store.IsActive
	if err := h.DB.Model(&Store{}).Where("id = ?", id).Update("is_active", store.IsActive).Error; err != nil {
		return nil, err
	}
	return store, nil
}

func (h *Handle) DeleteStore(id uint) error {
	store, err := h.StoreByID(id)
	if err != nil {
		return err
	}
	return h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("store_id = ?", id).Delete(&MSSQLConnection{}).Error; err != nil {
			return err
		}
		if err := tx.Where("store_id = ?", id).Delete(&ShopifyConnection{}).Error; err != nil {
			return err
		}
		return tx.Delete(store).Error
	})
}

// GetSetting returns the value for key, or fallback when unset.
func (h *Handle) GetSetting(key, fallback string) string {
	var s Setting
	if err := h.DB.Where("key = ?", key).Take(&s).Error; err != nil {
		return fallback
	}
	return s.Value
}

func (h *Handle) SetSetting(key, value, description string) error {
	var s Setting
	err := h.DB.Where("key = ?", key).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return h.DB.Create(&Setting{Key: key, Value: value, Description: description}).Error
	}
	if err != nil {
		return err
	}
	updates := map[string]any{"value": value}
	if description != "" {
		updates["description"] = description
	}
	return h.DB.Model(&s).Updates(updates).Error
}

// ExcludedUPCs returns the operator do-not-flag list as a set.
func (h *Handle) ExcludedUPCs() (map[string]struct{}, error) {
	var rows []UPCExclusion
	if err := h.DB.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		upc := strings.TrimSpace(r.UPC)
		if upc != "" {
			out[upc] = struct{}{}
		}
	}
	return out, nil
}

func (h *Handle) AddExclusion(upc, reason string) error {
	upc = strings.TrimSpace(upc)
	if upc == "" {
		return errors.New("upc is required")
	}
	return h.DB.Where("upc = ?", upc).
		FirstOrCreate(&UPCExclusion{UPC: upc, Reason: reason}).Error
}
