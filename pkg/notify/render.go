package notify

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnsupported is returned by Render when no template exists for the
// payload, e.g. an order status outside the known set. Callers skip the
// event with a warning rather than failing the batch.
var ErrUnsupported = errors.New("unsupported notification payload")

const messageTimeLayout = "2006-01-02 15:04:05"

const securityAdvisory = "If you do not recognize this activity, please contact us immediately."

// Render produces the message body for the event, formatting the event
// timestamp (UTC) into templates that carry a time. Rendering is pure: the
// same event always yields the same message.
func (e Event) Render() (string, error) {
	return e.Metadata.Render(e.Timestamp)
}

// Render dispatches over the metadata union.
func (m Metadata) Render(timestampMillis int64) (string, error) {
	switch {
	case m.Order != nil:
		return m.Order.render()
	case m.Transaction != nil:
		return m.Transaction.render(timestampMillis)
	case m.Account != nil:
		return m.Account.render(timestampMillis), nil
	}
	return "", fmt.Errorf("%w: empty metadata", ErrUnsupported)
}

func (o *OrderMeta) render() (string, error) {
	var phrase string
	switch o.Status {
	case "NEW":
		phrase = "placed successfully"
	case "FILLED":
		phrase = "matched"
	case "CANCELLED":
		phrase = "cancelled"
	case "REJECTED":
		phrase = "rejected"
	default:
		return "", fmt.Errorf("%w: order %d has status %q", ErrUnsupported, o.OrderID, o.Status)
	}
	return fmt.Sprintf("Order %d %s.", o.OrderID, phrase), nil
}

func (t *TransactionMeta) render(timestampMillis int64) (string, error) {
	when := formatMessageTime(timestampMillis)

	switch t.Status {
	case "COMPLETED":
		if t.TradeType == TradeAdd {
			return fmt.Sprintf("You have successfully deposit %s %s at %s", t.Amount, t.Asset, when), nil
		}
		return fmt.Sprintf("You have successfully withdraw %s %s at %s. %s", t.Amount, t.Asset, when, securityAdvisory), nil
	case "FAILED", "REJECTED":
		return fmt.Sprintf("Your %s transaction of %s %s failed at %s.", t.TradeType, t.Amount, t.Asset, when), nil
	}
	return "", fmt.Errorf("%w: transaction %d has status %q", ErrUnsupported, t.ID, t.Status)
}

func (a *AccountMeta) render(timestampMillis int64) string {
	when := formatMessageTime(timestampMillis)

	if a.Status == ActionFailed {
		return fmt.Sprintf("Your request to %s failed on %s. %s", a.Activity.phrase(), when, securityAdvisory)
	}

	act := a.Activity
	switch {
	case act.Kyc != nil:
		switch *act.Kyc {
		case KycUpgraded:
			return fmt.Sprintf("Your verification level was upgraded on %s.", when)
		default:
			return fmt.Sprintf("Your identity verification was approved on %s.", when)
		}
	case act.Whitelisting != nil:
		switch *act.Whitelisting {
		case WhitelistingDisabled:
			return fmt.Sprintf("Withdrawal address whitelisting was disabled on %s.", when)
		case WhitelistingAdded:
			return fmt.Sprintf("A new withdrawal address was added to your whitelist on %s.", when)
		case WhitelistingRemoved:
			return fmt.Sprintf("A withdrawal address was removed from your whitelist on %s.", when)
		default:
			return fmt.Sprintf("Withdrawal address whitelisting was enabled on %s.", when)
		}
	case act.Account != nil:
		if *act.Account == AccountDeleted {
			return fmt.Sprintf("Your account was permanently deleted on %s. All data has been removed as requested.", when)
		}
		return fmt.Sprintf("Your account was disabled on %s. %s", when, securityAdvisory)
	case act.Mfa != nil:
		if *act.Mfa == MfaDisabled {
			return fmt.Sprintf("Two-factor authentication was disabled on %s. %s", when, securityAdvisory)
		}
		return fmt.Sprintf("Two-factor authentication was enabled on %s.", when)
	case act.Password != nil:
		switch *act.Password {
		case PasswordInitialized:
			return fmt.Sprintf("Your account password was set up on %s. Your account is ready to use.", when)
		case PasswordChange:
			return fmt.Sprintf("Your password was changed on %s. %s", when, securityAdvisory)
		default:
			return fmt.Sprintf("Your password was reset on %s. %s", when, securityAdvisory)
		}
	}
	return fmt.Sprintf("Your account activity completed on %s.", when)
}

// phrase describes the attempted action, used in the shared failure template.
func (a Activity) phrase() string {
	switch {
	case a.Kyc != nil:
		if *a.Kyc == KycUpgraded {
			return "upgrade KYC"
		}
		return "verify KYC"
	case a.Whitelisting != nil:
		switch *a.Whitelisting {
		case WhitelistingDisabled:
			return "disable withdrawal address whitelisting"
		case WhitelistingAdded:
			return "add withdrawal address to whitelist"
		case WhitelistingRemoved:
			return "remove withdrawal address from whitelist"
		default:
			return "enable withdrawal address whitelisting"
		}
	case a.Account != nil:
		if *a.Account == AccountDeleted {
			return "delete account"
		}
		return "disable account"
	case a.Mfa != nil:
		if *a.Mfa == MfaDisabled {
			return "disable two-factor authentication"
		}
		return "enable two-factor authentication"
	case a.Password != nil:
		switch *a.Password {
		case PasswordInitialized:
			return "initialize password"
		case PasswordChange:
			return "change password"
		default:
			return "reset password"
		}
	}
	return "complete account activity"
}

func formatMessageTime(millis int64) string {
	return time.UnixMilli(millis).UTC().Format(messageTimeLayout)
}
