package prompts

const (
	codePlaceholder  = "{code_prompt}"
	issuePlaceholder = "{issue_prompt}"
)

const (
	enReviewer = "You are a senior engineer fluent in Go, Python and JavaScript."
	deReviewer = "Du bist ein erfahrener Entwickler mit fundierten Kenntnissen in Go, Python und JavaScript."
)

// Builtin returns a fresh copy of the built-in catalog.
func Builtin() *Catalog {
	return &Catalog{
		Languages: map[string]map[Detail]Templates{
			"en": {
				Concise: {
					CodeOnlySystem: enReviewer + " You review code for malicious, dangerous or risky behavior. " +
						"If you find any, answer with a short list of the changes you would make.",
					CodeOnlyUser: "Review the following code for malicious or dangerous behavior:\n" + codePlaceholder,
					CodeWithIssuesSystem: enReviewer + " When asked to find errors in code, answer with a corrected " +
						"version of the code followed by a short list of the changes you made.",
					CodeWithIssuesUser: "Briefly explain what the following code does, then look for errors in it:\n" + codePlaceholder,
					Issue:              "Static analysis reported the issue below. Fix it along with anything else you found:\n" + issuePlaceholder,
					MultipleIssues:     "Static analysis reported the issues below. Fix them along with anything else you found:\n" + issuePlaceholder,
				},
				Detailed: {
					CodeOnlySystem: enReviewer + " You review code thoroughly for malicious, dangerous or risky behavior. " +
						"If you find any, answer with a detailed list of the changes you would make and explain why each one is needed.",
					CodeOnlyUser: "Carefully review the following code for malicious or dangerous behavior:\n" + codePlaceholder,
					CodeWithIssuesSystem: enReviewer + " When asked to find errors in code, answer with a corrected " +
						"version of the code followed by a detailed list of the changes you made and the reason for each.",
					CodeWithIssuesUser: "Explain in detail what the following code does, then look for errors in it:\n" + codePlaceholder,
					Issue:              "Static analysis reported the issue below. Fix it along with anything else you found and explain the fix:\n" + issuePlaceholder,
					MultipleIssues:     "Static analysis reported the issues below. Fix them along with anything else you found and explain each fix:\n" + issuePlaceholder,
				},
			},
			"de": {
				Concise: {
					CodeOnlySystem: deReviewer + " Du prüfst Code auf schädliches, gefährliches oder riskantes Verhalten. " +
						"Wenn du etwas findest, antworte mit einer kurzen Liste der Änderungen, die du vornehmen würdest.",
					CodeOnlyUser: "Prüfe den folgenden Code auf schädliches oder gefährliches Verhalten:\n" + codePlaceholder,
					CodeWithIssuesSystem: deReviewer + " Wenn du Fehler im Code finden sollst, antworte mit einer korrigierten " +
						"Fassung des Codes, gefolgt von einer kurzen Liste deiner Änderungen.",
					CodeWithIssuesUser: "Erkläre kurz, was der folgende Code macht, und suche anschließend nach Fehlern:\n" + codePlaceholder,
					Issue:              "Die statische Analyse hat das folgende Problem gemeldet. Behebe es zusammen mit allem, was du sonst gefunden hast:\n" + issuePlaceholder,
					MultipleIssues:     "Die statische Analyse hat die folgenden Probleme gemeldet. Behebe sie zusammen mit allem, was du sonst gefunden hast:\n" + issuePlaceholder,
				},
				Detailed: {
					CodeOnlySystem: deReviewer + " Du prüfst Code gründlich auf schädliches, gefährliches oder riskantes Verhalten. " +
						"Wenn du etwas findest, antworte mit einer ausführlichen Liste der Änderungen und begründe jede einzelne.",
					CodeOnlyUser: "Prüfe den folgenden Code sorgfältig auf schädliches oder gefährliches Verhalten:\n" + codePlaceholder,
					CodeWithIssuesSystem: deReviewer + " Wenn du Fehler im Code finden sollst, antworte mit einer korrigierten " +
						"Fassung des Codes, gefolgt von einer ausführlichen Liste deiner Änderungen mit Begründung.",
					CodeWithIssuesUser: "Erkläre ausführlich, was der folgende Code macht, und suche anschließend nach Fehlern:\n" + codePlaceholder,
					Issue:              "Die statische Analyse hat das folgende Problem gemeldet. Behebe es zusammen mit allem, was du sonst gefunden hast, und erkläre die Korrektur:\n" + issuePlaceholder,
					MultipleIssues:     "Die statische Analyse hat die folgenden Probleme gemeldet. Behebe sie zusammen mit allem, was du sonst gefunden hast, und erkläre jede Korrektur:\n" + issuePlaceholder,
				},
			},
		},
	}
}
