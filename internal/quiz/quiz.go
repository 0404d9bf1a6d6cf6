// Package quiz holds the true/false questions of the second game.
package quiz

import "math/rand/v2"

type Question struct {
	ID          int    `json:"id"`
	Question    string `json:"question"`
	Answer      bool   `json:"answer"`
	Explanation string `json:"explicacion"`
}

// Verdict is the outcome of checking one answer.
type Verdict struct {
	Correct       bool   `json:"isCorrect"`
	CorrectAnswer bool   `json:"correctAnswer"`
	Explanation   string `json:"explicacion"`
}

var questions = []Question{
	{1, "Regar las plantas por la mañana es mejor que por la tarde", true,
		"Verdadero: Regar por la mañana permite que el agua se absorba antes de que el sol evapore demasiada."},
	{2, "Todas las plantas necesitan luz solar directa todo el día", false,
		"Falso: Algunas plantas prefieren sombra parcial o luz indirecta."},
	{3, "Los animales pueden adaptarse a la pérdida de hábitat", false,
		"Falso: La velocidad a la que los ecosistemas están siendo destruidos supera la capacidad de adaptación de muchas especies, por ello trae una extinción masiva de flora y fauna."},
	{4, "El reciclaje reduce la contaminación", true,
		"Verdadero: Separar los residuos evita que terminen en ríos, mares o quemados."},
	{5, "El agua dulce es limitada.", true,
		"Verdadero: Solo una pequeña parte del agua del planeta es apta para consumo humano."},
	{6, "El calentamiento global es un invento moderno.", false,
		"Falso: Está comprobado científicamente desde hace décadas."},
	{7, "El reciclaje siempre se mezcla y no sirve.", false,
		"Falso: Sí se recicla, solo falla cuando la gente no separa bien."},
	{8, "Los bosques son el “pulmón” del mundo", true,
		"Verdadero: Sin ellos, la calidad del aire y el clima empeoran."},
	{9, "Podar las plantas ayuda a que crezcan más fuertes", true,
		"Verdadero: La poda elimina partes muertas y estimula nuevo crecimiento."},
	{10, "Todo lo biodegradable puede tirarse en cualquier lado", false,
		"Falso: Aunque se degrade, contamina y tarda meses o años."},
}

// Shuffled returns every question in random order.  The shared set is
// never reordered.
func Shuffled() []Question {
	out := make([]Question, len(questions))
	copy(out, questions)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Lookup finds a question by id.
func Lookup(id int) (Question, bool) {
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Check grades answer against question id.
func Check(id int, answer bool) (Verdict, bool) {
	q, ok := Lookup(id)
	if !ok {
		return Verdict{}, false
	}
	return Verdict{Correct: answer == q.Answer, CorrectAnswer: q.Answer, Explanation: q.Explanation}, true
}
