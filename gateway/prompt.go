// ABOUTME: Builds the Gemini conversation for one chat turn
// ABOUTME: Persona preamble, fixed acknowledgement, prior turns, then the new message
package gateway

import (
	"fmt"

	"google.golang.org/genai"
)

// Turn is one prior message in gateway vocabulary.
type Turn struct {
	Role string // RoleUser or RoleModel
	Text string
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)

const preambleTemplate = `Você é um assistente de IA com a seguinte personalidade e contexto:

PERSONALIDADE: %s

CONTEXTO: %s

INSTRUÇÕES:
- Responda sempre de acordo com sua personalidade definida
- Mantenha consistência com o contexto fornecido
- Seja útil, preciso e mantenha o tom apropriado
- Se não souber algo, admita de forma educada
- Mantenha as respostas concisas mas informativas

Agora responda à mensagem do usuário mantendo sua personalidade:`

const acknowledgement = "Entendido! Estou pronto para conversar mantendo minha personalidade e contexto. Como posso ajudá-lo?"

// Preamble renders the system-style first turn.
func Preamble(persona, context string) string {
	return fmt.Sprintf(preambleTemplate, persona, context)
}

func buildContents(req Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+3)
	contents = append(contents,
		genai.NewContentFromText(Preamble(req.Persona, req.Context), genai.RoleUser),
		genai.NewContentFromText(acknowledgement, genai.RoleModel),
	)
	for _, turn := range req.History {
		role := genai.Role(genai.RoleUser)
		if turn.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	return append(contents, genai.NewContentFromText(req.Message, genai.RoleUser))
}
