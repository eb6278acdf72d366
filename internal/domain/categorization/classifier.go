package categorization

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/granadev/grana/internal/domain/import/normalizer"
)

// Classification is the classifier's verdict for one statement line.
type Classification struct {
	Category      Category
	Type          TransactionType
	PaymentMethod PaymentMethod
}

// Classifier assigns category, type and payment method. It is purely
// rule-based and works with no external service; an oracle can overlay
// category suggestions on top of it but is never required.
type Classifier struct {
	engine *Engine
}

// NewClassifier returns a classifier backed by the given engine, or the
// default rule table when engine is nil.
func NewClassifier(engine *Engine) *Classifier {
	if engine == nil {
		engine = NewEngine(nil)
	}
	return &Classifier{engine: engine}
}

// Classify inspects the cleaned description for the category, the raw
// description for the payment method and the signed amount for the type.
// The payment method must see the raw text because markers like
// "Compra no débito" are exactly what normalization strips.
func (c *Classifier) Classify(cleanDesc, rawDesc string, rawAmount decimal.Decimal) Classification {
	return Classification{
		Category:      c.Category(cleanDesc),
		Type:          TypeForAmount(rawAmount),
		PaymentMethod: PaymentMethodFor(rawDesc),
	}
}

// Category returns the first-matching rule group's category, or Outros.
func (c *Classifier) Category(description string) Category {
	if category, ok := c.engine.Match(description); ok {
		return category
	}
	return CategoryOther
}

// TypeForAmount maps the amount sign to a transaction type. Investments are
// never inferred from statements; only the explicit deposit-to-goal flow
// produces them.
func TypeForAmount(rawAmount decimal.Decimal) TransactionType {
	if rawAmount.IsNegative() {
		return TypeExpense
	}
	return TypeIncome
}

// PaymentMethodFor scans the raw description for payment markers, first
// match wins. Statement lines with no marker default to credit card, the
// common case for card exports.
func PaymentMethodFor(rawDescription string) PaymentMethod {
	folded := normalizer.Fold(rawDescription)

	switch {
	case strings.Contains(folded, "pix"):
		return MethodPix
	case strings.Contains(folded, "debito"):
		return MethodDebitCard
	case strings.Contains(folded, "credito"):
		return MethodCreditCard
	case strings.Contains(folded, "rdb"), strings.Contains(folded, "resgate"):
		return MethodOther
	default:
		return MethodCreditCard
	}
}
