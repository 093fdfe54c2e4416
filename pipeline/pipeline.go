// ABOUTME: Pipeline engine moving opportunities across the kanban stages
// ABOUTME: Applies the won cascade that marks the linked client as closed-won
package pipeline

import (
	"errors"
	"fmt"

	"github.com/harperreed/agentcrm/db"
	"github.com/harperreed/agentcrm/models"
	"go.uber.org/zap"
)

var ErrUnknownStage = errors.New("unknown stage")

// Column is one kanban column.
type Column struct {
	Stage         string               `json:"stage"`
	Name          string               `json:"name"`
	Opportunities []models.Opportunity `json:"opportunities"`
	Total         float64              `json:"total"`
}

// Engine applies stage transitions through the entity store.
type Engine struct {
	store  *db.EntityStore
	logger *zap.Logger
}

func NewEngine(store *db.EntityStore, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, logger: logger}
}

// MoveToStage sets the opportunity's stage. Moving into fechado-ganhou marks the
// linked client as won; moving out never reverts the client.
func (e *Engine) MoveToStage(opportunityID, stage string) (models.Opportunity, error) {
	if !models.IsValidStage(stage) {
		return models.Opportunity{}, fmt.Errorf("%w: %q", ErrUnknownStage, stage)
	}

	opp, err := e.store.Opportunity(opportunityID)
	if err != nil {
		return models.Opportunity{}, err
	}

	from := opp.Stage
	opp.Stage = stage
	if _, err := e.store.UpdateOpportunity(opp); err != nil {
		return models.Opportunity{}, fmt.Errorf("failed to move opportunity: %w", err)
	}

	e.logger.Info("opportunity moved",
		zap.String("opportunity_id", opp.ID),
		zap.String("from", from),
		zap.String("to", stage))

	if stage == models.StageClosedWon {
		if err := e.markClientWon(opp); err != nil {
			return opp, err
		}
	}
	return opp, nil
}

func (e *Engine) markClientWon(opp models.Opportunity) error {
	client, ok := e.ClientFor(opp)
	if !ok {
		e.logger.Info("won cascade found no client",
			zap.String("opportunity_id", opp.ID),
			zap.String("client_id", opp.ClientID),
			zap.String("client_name", opp.ClientName))
		return nil
	}
	if client.Status == models.ClientStatusClosedWon {
		return nil
	}

	client.Status = models.ClientStatusClosedWon
	if _, err := e.store.UpdateClient(client); err != nil {
		return fmt.Errorf("failed to mark client won: %w", err)
	}
	e.logger.Info("client marked won", zap.String("client_id", client.ID), zap.String("opportunity_id", opp.ID))
	return nil
}

// ClientFor resolves the client the won cascade targets: by client id first, then
// by the first exact name match.
func (e *Engine) ClientFor(opp models.Opportunity) (models.Client, bool) {
	if opp.ClientID != "" {
		if c, err := e.store.Client(opp.ClientID); err == nil {
			return c, true
		}
	}
	matches := e.store.ClientsByName(opp.ClientName)
	if len(matches) == 0 {
		return models.Client{}, false
	}
	return matches[0], true
}

// LinkClient points the opportunity at a client by id and copies its current name.
func (e *Engine) LinkClient(opportunityID, clientID string) (models.Opportunity, error) {
	client, err := e.store.Client(clientID)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("client %s: %w", clientID, err)
	}
	opp, err := e.store.Opportunity(opportunityID)
	if err != nil {
		return models.Opportunity{}, fmt.Errorf("opportunity %s: %w", opportunityID, err)
	}

	opp.ClientID = client.ID
	opp.ClientName = client.FullName
	if _, err := e.store.UpdateOpportunity(opp); err != nil {
		return models.Opportunity{}, fmt.Errorf("failed to link client: %w", err)
	}
	return opp, nil
}

// Board groups opportunities into the seven columns in stage order.
func (e *Engine) Board() []Column {
	return BuildBoard(e.store.Opportunities())
}

// BuildBoard groups opportunities by stage. Opportunities with an unknown stage are left out.
func BuildBoard(opps []models.Opportunity) []Column {
	columns := make([]Column, len(models.Stages))
	index := make(map[string]int, len(models.Stages))
	for i, stage := range models.Stages {
		columns[i] = Column{Stage: stage, Name: models.StageName(stage), Opportunities: []models.Opportunity{}}
		index[stage] = i
	}
	for _, o := range opps {
		i, ok := index[o.Stage]
		if !ok {
			continue
		}
		columns[i].Opportunities = append(columns[i].Opportunities, o)
		columns[i].Total += o.Value
	}
	return columns
}

// Neighbor returns the stage before (delta -1) or after (delta +1) stage in board
// order, or "" at either edge.
func Neighbor(stage string, delta int) string {
	for i, s := range models.Stages {
		if s != stage {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(models.Stages) {
			return ""
		}
		return models.Stages[j]
	}
	return ""
}
