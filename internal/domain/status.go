package domain

import "time"

type DiningMode string

const (
	DiningModeTakeaway DiningMode = "EMPORTE"
	DiningModeOnSite   DiningMode = "SUR_PLACE"
)

func (m DiningMode) Valid() bool {
	return m == DiningModeTakeaway || m == DiningModeOnSite
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

type PaymentMethod string

const (
	PaymentMobileMoney    PaymentMethod = "MOBILE_MONEY"
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
)

type PaymentProvider string

const (
	ProviderOrange PaymentProvider = "ORANGE"
	ProviderMTN    PaymentProvider = "MTN"
	ProviderWave   PaymentProvider = "WAVE"
)

func (p PaymentProvider) Valid() bool {
	switch p {
	case ProviderOrange, ProviderMTN, ProviderWave:
		return true
	}
	return false
}

// CollectionKey names a logical container in the live document store.
type CollectionKey string

const (
	CollectionProducts  CollectionKey = "products"
	CollectionSuppliers CollectionKey = "Fournisseurs"
	CollectionOrders    CollectionKey = "Commandes"
	CollectionInventory CollectionKey = "Inventory"
	CollectionSettings  CollectionKey = "Settings/general"
)

// Collections lists every key the realtime store subscribes to.
var Collections = []CollectionKey{
	CollectionSettings,
	CollectionProducts,
	CollectionSuppliers,
	CollectionOrders,
	CollectionInventory,
}

type ChangeOp string

const (
	OpCreate ChangeOp = "create"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
	OpUpsert ChangeOp = "upsert"
	// OpResync is emitted locally after the feed re-binds; events may have been missed.
	OpResync ChangeOp = "resync"
)

// ChangeEvent is published after every committed write to a collection.
type ChangeEvent struct {
	Collection CollectionKey `json:"collection"`
	DocumentID string        `json:"document_id"`
	Op         ChangeOp      `json:"op"`
	At         time.Time     `json:"at"`
}
