// Package categorization assigns a category, transaction type and payment
// method to statement lines. Category rules are ordered keyword groups with
// first-match-wins semantics, backed by an Aho-Corasick matcher so a whole
// statement classifies in a single pass per description.
package categorization

// Category is the closed set of spending categories. Values are the
// Portuguese labels stored in the database and shown in the app.
type Category string

const (
	CategoryHousing   Category = "Habitação"
	CategoryFood      Category = "Alimentação"
	CategoryTransport Category = "Transporte"
	CategoryHealth    Category = "Saúde"
	CategoryLeisure   Category = "Lazer"
	CategoryOther     Category = "Outros"
)

// Categories lists every valid category in display order.
func Categories() []Category {
	return []Category{
		CategoryHousing,
		CategoryFood,
		CategoryTransport,
		CategoryHealth,
		CategoryLeisure,
		CategoryOther,
	}
}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryHousing, CategoryFood, CategoryTransport,
		CategoryHealth, CategoryLeisure, CategoryOther:
		return true
	}
	return false
}

// TransactionType distinguishes money in, money out and money set aside.
type TransactionType string

const (
	TypeIncome     TransactionType = "Entrada"
	TypeExpense    TransactionType = "Saída"
	TypeInvestment TransactionType = "Investimento"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeInvestment:
		return true
	}
	return false
}

// PaymentMethod is the closed set of payment instruments.
type PaymentMethod string

const (
	MethodPix         PaymentMethod = "Pix"
	MethodCash        PaymentMethod = "Dinheiro"
	MethodMealVoucher PaymentMethod = "Vale-Refeição"
	MethodCreditCard  PaymentMethod = "Cartão de Crédito"
	MethodDebitCard   PaymentMethod = "Cartão de Débito"
	MethodOther       PaymentMethod = "Outro"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodPix, MethodCash, MethodMealVoucher,
		MethodCreditCard, MethodDebitCard, MethodOther:
		return true
	}
	return false
}
