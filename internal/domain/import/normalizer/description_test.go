package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := New()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"pix transfer with CNPJ",
			"Transferência enviada pelo Pix - João Silva - 123.456.789/0001-00",
			"João Silva",
		},
		{
			"debit purchase with CNPJ and bank",
			"Compra no débito - Supermercado Bom Preço - 12.345.678/0001-99",
			"Supermercado Bom Preço",
		},
		{
			"received pix",
			"Transferência recebida pelo Pix - Empresa XYZ LTDA - 98.765.432/0001-11 - BANCO ITAU",
			"Empresa XYZ LTDA",
		},
		{
			"masked cpf after bullet",
			"Transferência enviada pelo Pix - Maria Souza •••.123.456-78",
			"Maria Souza",
		},
		{
			"unaccented prefix spelling",
			"Transferencia enviada pelo Pix - Ana Lima",
			"Ana Lima",
		},
		{
			"plain merchant untouched",
			"Padaria Estrela",
			"Padaria Estrela",
		},
		{
			"quotes stripped",
			`"Mercado Central"`,
			"Mercado Central",
		},
		{
			"whitespace collapsed",
			"Mercado   Central ",
			"Mercado Central",
		},
		{
			"falls back to raw when cleaning empties",
			"Resgate RDB",
			"Resgate RDB",
		},
		{
			"canonical merchant name",
			"Ifood *Pedido 48213",
			"iFood",
		},
		{
			"cnpj mid-string truncates",
			"Posto Shell 11.222.333 LTDA",
			"Posto Shell",
		},
		{
			"boilerplate phrase mid-string survives",
			"Curso Pagamento de Fatura em Dia",
			"Curso Pagamento de Fatura em Dia",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := New()

	inputs := []string{
		"Transferência enviada pelo Pix - João Silva - 123.456.789/0001-00",
		"Compra no débito - Supermercado Bom Preço - 12.345.678/0001-99",
		"Padaria Estrela",
		"Resgate RDB",
		"Ifood *Pedido 48213",
	}

	for _, raw := range inputs {
		once := n.Normalize(raw)
		assert.Equal(t, once, n.Normalize(once), "input %q", raw)
	}
}

func TestSanitize(t *testing.T) {
	n := New()

	modified := n.Sanitize("Compra no débito - Supermercado Bom Preço - 12.345.678/0001-99")
	assert.Equal(t, "Supermercado Bom Preço", modified.Clean)
	assert.True(t, modified.Modified())

	untouched := n.Sanitize("Padaria Estrela")
	assert.Equal(t, "Padaria Estrela", untouched.Clean)
	assert.False(t, untouched.Modified())
}

func TestAddPattern(t *testing.T) {
	n := New()

	require := assert.New(t)
	require.NoError(n.AddPattern(`^acougue do ze\b`, "Açougue do Zé"))
	require.Equal("Açougue do Zé", n.Normalize("ACOUGUE DO ZE 042"))

	require.Error(n.AddPattern(`[`, "broken"))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "pao de acucar", Fold("Pão de Açúcar"))
	assert.Equal(t, "debito", Fold("DÉBITO"))
	assert.Equal(t, "ja folded", Fold("ja folded"))
}
