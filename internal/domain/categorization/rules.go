package categorization

// RuleGroup is an ordered set of keywords mapped to one category. Groups are
// evaluated in slice order and the first group with any matching keyword
// wins; keyword order inside a group does not matter.
type RuleGroup struct {
	Name     string
	Category Category
	Keywords []string
}

// Keywords are matched as substrings of the folded (lowercase, accent-free)
// description, so they are written without accents.
func defaultRuleGroups() []RuleGroup {
	return []RuleGroup{
		{
			Name:     "food",
			Category: CategoryFood,
			Keywords: []string{
				"ifood", "uber eats", "rappi", "ze delivery", "z. delivery",
				"restaurante", "burger", "mcdonald", "subway", "pizza", "sushi",
				"pao de acucar", "carrefour", "extra", "assai", "atacad",
				"mercado", "supermercado", "padaria",
				"coffee", "cafe", "starbucks", "outback", "madeiro",
			},
		},
		{
			Name:     "transport",
			Category: CategoryTransport,
			Keywords: []string{
				"uber", "99", "taxi",
				"posto", "gasolina", "ipiranga", "shell", "petrobras",
				"estacionamento", "parking", "sem parar", "veloe", "pedagio",
				"buser", "clickbus", "passagem",
			},
		},
		{
			Name:     "health",
			Category: CategoryHealth,
			Keywords: []string{
				"droga", "drogasil", "farmacia", "pague menos", "raia",
				"ultrafarma", "panvel",
				"hospital", "clinica", "laboratorio", "medico", "dentista",
				"exame", "consulta", "psicolog", "terapia",
			},
		},
		{
			Name:     "housing",
			Category: CategoryHousing,
			Keywords: []string{
				"luz", "energia", "agua", "saneamento", "condominio", "aluguel",
				"internet", "vivo", "claro", "tim", "oi", "net", "sky",
				"netflix", "amazon prime", "disney", "spotify", "youtube",
				"apple", "google", "aws", "azure",
			},
		},
		{
			Name:     "leisure",
			Category: CategoryLeisure,
			Keywords: []string{
				"cinema", "movie", "teatro", "show", "ingresso", "eventim",
				"ticket", "sympla", "smart fit", "gym", "academia",
			},
		},
	}
}

// Streaming and gaming services share keywords with the utilities group
// (subscriptions billed like bills) but belong in Lazer. A housing match
// that also hits one of these is redirected.
func streamingKeywords() []string {
	return []string{
		"netflix", "amazon prime", "disney", "spotify", "youtube",
		"apple", "steam", "playstation", "xbox", "nintendo", "game",
	}
}
