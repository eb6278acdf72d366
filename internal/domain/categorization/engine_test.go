package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineMatch(t *testing.T) {
	e := NewEngine(nil)

	tests := []struct {
		name        string
		description string
		want        Category
		matched     bool
	}{
		{"supermarket", "Supermercado Bom Preço", CategoryFood, true},
		{"delivery app", "Ifood *Pedido 123", CategoryFood, true},
		{"accented grocery chain", "Pão de Açúcar Loja 04", CategoryFood, true},
		{"ride hailing", "Uber *Viagem", CategoryTransport, true},
		{"fuel station", "Posto Ipiranga", CategoryTransport, true},
		{"pharmacy", "Drogasil Filial 12", CategoryHealth, true},
		{"utility bill", "Conta de Luz Enel", CategoryHousing, true},
		{"rent", "Aluguel Apartamento", CategoryHousing, true},
		{"gym", "Smart Fit Mensalidade", CategoryLeisure, true},
		{"cinema", "Cinemark Shopping", CategoryLeisure, true},
		{"unknown merchant", "Jose da Esquina", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Match(tt.description)
			assert.Equal(t, tt.matched, ok)
			if tt.matched {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestEngineGroupOrderWins(t *testing.T) {
	e := NewEngine(nil)

	// "uber eats" is a food keyword and "uber" a transport keyword; the
	// food group comes first so it takes the whole description.
	got, ok := e.Match("Uber Eats Pedido 99")
	require.True(t, ok)
	assert.Equal(t, CategoryFood, got)
}

func TestEngineStreamingRedirect(t *testing.T) {
	e := NewEngine(nil)

	streaming := []string{"Netflix.com", "Spotify AB", "Disney Plus", "Youtube Premium"}
	for _, desc := range streaming {
		got, ok := e.Match(desc)
		require.True(t, ok, desc)
		assert.Equal(t, CategoryLeisure, got, desc)
	}

	// Plain utilities stay in housing.
	got, ok := e.Match("Claro Internet Fibra")
	require.True(t, ok)
	assert.Equal(t, CategoryHousing, got)
}

func TestEngineCustomGroupPrecedence(t *testing.T) {
	groups := append([]RuleGroup{
		{Name: "custom", Category: CategoryHealth, Keywords: []string{"mercado"}},
	}, defaultRuleGroups()...)
	e := NewEngine(groups)

	got, ok := e.Match("Mercado Central")
	require.True(t, ok)
	assert.Equal(t, CategoryHealth, got)
}

func TestEngineMatchBatch(t *testing.T) {
	e := NewEngine(nil)

	got := e.MatchBatch([]string{
		"Padaria Estrela",
		"Jose da Esquina",
		"Netflix.com",
	})

	assert.Equal(t, []Category{CategoryFood, CategoryOther, CategoryLeisure}, got)
}

func TestEngineEmpty(t *testing.T) {
	e := NewEngine([]RuleGroup{})

	assert.True(t, e.IsEmpty())
	_, ok := e.Match("anything")
	assert.False(t, ok)
	assert.Equal(t, []Category{CategoryOther}, e.MatchBatch([]string{"anything"}))
}
