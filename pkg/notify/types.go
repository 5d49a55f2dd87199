// Package notify contains the domain model shared by the notification
// pipeline and the admin surface: inbound events, their metadata union,
// user preferences and the persisted notification record.
package notify

import (
	"fmt"
	"time"
)

// Type identifies the notification category of an event. The values match
// the variant names used on the wire.
type Type string

const (
	TypeOrder        Type = "Order"
	TypeTransaction  Type = "Transaction"
	TypeAccount      Type = "Account"
	TypeAnnouncement Type = "Announcement"
	TypeCampaign     Type = "Campaign"
)

// ParseType converts the persisted (uppercase) form back to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "ORDER":
		return TypeOrder, nil
	case "TRANSACTION":
		return TypeTransaction, nil
	case "ACCOUNT":
		return TypeAccount, nil
	case "ANNOUNCEMENT":
		return TypeAnnouncement, nil
	case "CAMPAIGN":
		return TypeCampaign, nil
	}
	return "", fmt.Errorf("invalid notification type %q", s)
}

// Label is the uppercase form stored in the `type` field of a persisted
// notification record.
func (t Type) Label() string {
	switch t {
	case TypeOrder:
		return "ORDER"
	case TypeTransaction:
		return "TRANSACTION"
	case TypeAccount:
		return "ACCOUNT"
	case TypeAnnouncement:
		return "ANNOUNCEMENT"
	case TypeCampaign:
		return "CAMPAIGN"
	}
	return string(t)
}

// Title returns the fixed push/record title for the type.
func (t Type) Title() string {
	switch t {
	case TypeOrder:
		return "Order Notification"
	case TypeTransaction:
		return "Transaction Notification"
	case TypeAccount:
		return "Account Notification"
	case TypeAnnouncement:
		return "Announcement Notification"
	case TypeCampaign:
		return "Campaign Notification"
	}
	return "Notification"
}

// Event is one inbound record from the bus. Timestamps are producer-clock
// milliseconds since the epoch. The wire encoding is MessagePack.
type Event struct {
	UserID    string   `msgpack:"user_id" json:"user_id"`
	Type      Type     `msgpack:"notif_type" json:"notif_type"`
	Timestamp int64    `msgpack:"timestamp" json:"timestamp"`
	Metadata  Metadata `msgpack:"metadata" json:"metadata"`
}

// Metadata is the tagged union of concrete event payloads. Exactly one field
// is set; on the wire it is a single-entry map keyed by the variant name.
type Metadata struct {
	Order       *OrderMeta       `msgpack:"Order,omitempty" json:"Order,omitempty"`
	Transaction *TransactionMeta `msgpack:"Transaction,omitempty" json:"Transaction,omitempty"`
	Account     *AccountMeta     `msgpack:"Account,omitempty" json:"Account,omitempty"`
}

// OrderMeta carries an order status change.
type OrderMeta struct {
	OrderID uint64 `msgpack:"order_id" json:"order_id"`
	Status  string `msgpack:"status" json:"status"`
}

// TradeType is the direction of a settled transaction.
type TradeType string

const (
	TradeBuy    TradeType = "BUY"
	TradeSell   TradeType = "SELL"
	TradeAdd    TradeType = "ADD"
	TradeRemove TradeType = "REMOVE"
)

// TransactionMeta carries a transaction settlement.
type TransactionMeta struct {
	ID        uint64    `msgpack:"id" json:"id"`
	UserID    string    `msgpack:"userId" json:"userId"`
	Asset     string    `msgpack:"asset" json:"asset"`
	NetworkID string    `msgpack:"networkId" json:"networkId"`
	TxHash    string    `msgpack:"txHash" json:"txHash"`
	TradeType TradeType `msgpack:"type" json:"type"`
	Amount    string    `msgpack:"amount" json:"amount"`
	Status    string    `msgpack:"status" json:"status"`
}

// ActionStatus is the outcome of an account-security action.
type ActionStatus string

const (
	ActionFailed  ActionStatus = "Failed"
	ActionSuccess ActionStatus = "Success"
)

// AccountMeta carries an account-security action.
type AccountMeta struct {
	UserID   string       `msgpack:"user_id" json:"user_id"`
	Activity Activity     `msgpack:"activity_type" json:"activity_type"`
	Status   ActionStatus `msgpack:"action_status" json:"action_status"`
}

// Activity is the tagged union of account activity kinds, each carrying its
// own action. Like Metadata, the wire form is a single-entry map.
type Activity struct {
	Kyc          *KycAction          `msgpack:"Kyc,omitempty" json:"Kyc,omitempty"`
	Whitelisting *WhitelistingAction `msgpack:"Whitelisting,omitempty" json:"Whitelisting,omitempty"`
	Account      *AccountAction      `msgpack:"Account,omitempty" json:"Account,omitempty"`
	Mfa          *MfaAction          `msgpack:"Mfa,omitempty" json:"Mfa,omitempty"`
	Password     *PasswordAction     `msgpack:"Password,omitempty" json:"Password,omitempty"`
}

type (
	KycAction          string
	WhitelistingAction string
	AccountAction      string
	MfaAction          string
	PasswordAction     string
)

const (
	KycApproved KycAction = "Approved"
	KycUpgraded KycAction = "Upgraded"

	WhitelistingEnabled  WhitelistingAction = "Enabled"
	WhitelistingDisabled WhitelistingAction = "Disabled"
	WhitelistingAdded    WhitelistingAction = "Added"
	WhitelistingRemoved  WhitelistingAction = "Removed"

	AccountDisabled AccountAction = "Disabled"
	AccountDeleted  AccountAction = "Deleted"

	MfaEnabled  MfaAction = "Enabled"
	MfaDisabled MfaAction = "Disabled"

	PasswordInitialized PasswordAction = "Initialized"
	PasswordChange      PasswordAction = "Change"
	PasswordReset       PasswordAction = "Reset"
)

// Preferences are the per-user notification toggles. A user with no stored
// record gets the zero-config default: everything enabled.
type Preferences struct {
	Announcement bool `json:"announcement" bson:"announcement"`
	Account      bool `json:"account" bson:"account"`
	Campaign     bool `json:"campaign" bson:"campaign"`
	Transaction  bool `json:"transaction" bson:"transaction"`
}

// DefaultPreferences returns the all-enabled default.
func DefaultPreferences() Preferences {
	return Preferences{Announcement: true, Account: true, Campaign: true, Transaction: true}
}

// Allows reports whether notifications of the given type are enabled.
// Order notifications are gated by the transaction toggle.
func (p Preferences) Allows(t Type) bool {
	switch t {
	case TypeTransaction, TypeOrder:
		return p.Transaction
	case TypeAccount:
		return p.Account
	case TypeAnnouncement:
		return p.Announcement
	case TypeCampaign:
		return p.Campaign
	}
	return false
}

// Notification is the user-visible record written by the persister and read
// back by the admin surface. Immutable after insert except IsRead/UpdatedAt.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsRead    bool      `json:"isRead"`
}
