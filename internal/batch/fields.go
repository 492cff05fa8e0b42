package batch

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/keihi/internal/common"
	"github.com/Veraticus/keihi/internal/model"
)

// Field names a user-editable receipt attribute.
type Field string

// Editable fields.
const (
	FieldMerchant        Field = "merchant"
	FieldDate            Field = "date"
	FieldAmount          Field = "amount"
	FieldCurrency        Field = "currency"
	FieldReceiverName    Field = "receiverName"
	FieldAccountCategory Field = "accountCategory"
	FieldNote            Field = "note"
)

// EditableFields lists the fields UpdateField accepts.
func EditableFields() []Field {
	return []Field{
		FieldMerchant, FieldDate, FieldAmount, FieldCurrency,
		FieldReceiverName, FieldAccountCategory, FieldNote,
	}
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// optionalPtr maps a blank OCR value to an absent one.
func optionalPtr(value *string) *string {
	if value == nil {
		return nil
	}
	return optional(*value)
}

func setField(r *model.ReceiptData, field Field, value string) error {
	switch field {
	case FieldMerchant:
		r.Merchant = optional(value)
	case FieldDate:
		r.Date = optional(value)
	case FieldCurrency:
		if v := optional(value); v != nil {
			r.Currency = model.StringPtr(strings.ToUpper(*v))
		} else {
			r.Currency = nil
		}
	case FieldReceiverName:
		r.ReceiverName = optional(value)
	case FieldAccountCategory:
		r.AccountCategory = optional(value)
	case FieldNote:
		r.Note = optional(value)
	case FieldAmount:
		v := optional(value)
		if v == nil {
			r.Amount = nil
			return nil
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(*v, ",", ""), 64)
		if err == nil && (math.IsNaN(amount) || math.IsInf(amount, 0)) {
			err = strconv.ErrSyntax
		}
		if err != nil {
			return common.NewUserError(fmt.Sprintf("金額を数値で入力してください: %s", value), err)
		}
		r.Amount = &amount
	default:
		return fmt.Errorf("%w: %s", common.ErrUnsupportedField, field)
	}
	return nil
}
