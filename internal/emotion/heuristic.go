package emotion

import "strings"

// heuristicRules replica el orden de evaluacion del fallback de servidor.
var heuristicRules = []struct {
	label    string
	keywords []string
}{
	{"joy", []string{"happy", "great", "excited", "joy", "good"}},
	{"sadness", []string{"sad", "down", "blue", "cry", "lonely"}},
	{"anger", []string{"angry", "mad", "furious", "rage"}},
	{"fear", []string{"worried", "scared", "anxious", "afraid"}},
	{"love", []string{"love", "grateful", "thankful"}},
}

// Result es la salida normalizada de cualquier clasificador de texto.
type Result struct {
	TopLabel string
	TopScore float64
	Scores   map[string]float64
}

// Heuristic clasifica por palabras clave cuando el modelo remoto no responde.
// Sin coincidencias devuelve neutral con score 0.
func Heuristic(text string) Result {
	lowered := strings.ToLower(text)
	scores := make(map[string]float64, len(heuristicRules))
	top := ""
	for _, rule := range heuristicRules {
		hit := 0.0
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				hit = 1.0
				break
			}
		}
		scores[rule.label] = hit
		if hit > 0 && top == "" {
			top = rule.label
		}
	}
	if top == "" {
		return Result{TopLabel: "neutral", TopScore: 0, Scores: scores}
	}
	return Result{TopLabel: top, TopScore: scores[top], Scores: scores}
}

// TopOf elige el label con mayor score; en empate gana el menor alfabeticamente.
func TopOf(scores map[string]float64) (string, float64) {
	top := ""
	best := -1.0
	for label, s := range scores {
		if s > best || (s == best && label < top) {
			top, best = label, s
		}
	}
	if top == "" {
		return "", 0
	}
	return top, best
}
