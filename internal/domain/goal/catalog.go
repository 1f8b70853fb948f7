package goal

type Option struct {
	ID   string
	Text string
}

type Question struct {
	ID      string
	Text    string
	Options []Option
}

var catalog = []Question{
	{
		ID:   "priority",
		Text: "Qual sua maior prioridade financeira agora?",
		Options: []Option{
			{ID: "pay_debts", Text: "Pagar dívidas"},
			{ID: "emergency_fund", Text: "Guardar uma reserva de emergência"},
			{ID: "daily_expenses", Text: "Controlar gastos do dia-a-dia"},
		},
	},
	{
		ID:   "tracking",
		Text: "Você costuma acompanhar seus gastos mensalmente?",
		Options: []Option{
			{ID: "regular_tracking", Text: "Sim, eu já faço isso regularmente"},
			{ID: "sometimes_tracking", Text: "Às vezes, mas não com disciplina"},
			{ID: "never_tracking", Text: "Não, quase nunca"},
		},
	},
	{
		ID:   "spending_pattern",
		Text: "Como você gasta mais: despesas fixas ou gastos inesperados / supérfluos?",
		Options: []Option{
			{ID: "high_fixed_costs", Text: "Tenho muitos custos fixos altos"},
			{ID: "impulse_spending", Text: "Gasto demais com supérfluos ou coisas extras sem planejar"},
			{ID: "both_equal", Text: "Os dois igualmente"},
		},
	},
}

// Catalog returns the questionnaire in display order.
func Catalog() []Question {
	out := make([]Question, len(catalog))
	for i, q := range catalog {
		q.Options = append([]Option(nil), q.Options...)
		out[i] = q
	}
	return out
}

// Resolve maps ids to display texts. Unknown ids resolve to themselves.
func Resolve(questionID, answerID string) (questionText, answerText string) {
	questionText, answerText = questionID, answerID
	for _, q := range catalog {
		if q.ID != questionID {
			continue
		}
		questionText = q.Text
		for _, opt := range q.Options {
			if opt.ID == answerID {
				answerText = opt.Text
				break
			}
		}
		break
	}
	return questionText, answerText
}

// Order returns the catalog position of questionID, or len(catalog) when unknown.
func Order(questionID string) int {
	for i, q := range catalog {
		if q.ID == questionID {
			return i
		}
	}
	return len(catalog)
}
