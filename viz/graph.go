// ABOUTME: Graphviz rendering of the opportunity pipeline
// ABOUTME: One cluster per kanban stage, optionally linking clients to their opportunities
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/agentcrm/models"
	"go.uber.org/zap"
)

// GraphGenerator renders CRM data with graphviz.
type GraphGenerator struct {
	logger *zap.Logger
}

func NewGraphGenerator(logger *zap.Logger) *GraphGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphGenerator{logger: logger}
}

// GeneratePipelineGraph renders the kanban as a graph in the given format
// (graphviz.XDOT for DOT source, graphviz.SVG for an image). When clients is
// non-empty each opportunity is linked to its client.
func (g *GraphGenerator) GeneratePipelineGraph(ctx context.Context, opps []models.Opportunity, clients []models.Client, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() {
		if err := gv.Close(); err != nil {
			g.logger.Warn("failed to close graphviz", zap.Error(err))
		}
	}()

	graph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() {
		if err := graph.Close(); err != nil {
			g.logger.Warn("failed to close graph", zap.Error(err))
		}
	}()

	graph.SetLabel("Pipeline de Oportunidades")
	graph.SetRankDir(cgraph.LRRank)

	stageNodes := make(map[string]*cgraph.Node, len(models.Stages))
	var prev *cgraph.Node
	for _, stage := range models.Stages {
		cluster, err := graph.CreateSubGraphByName("cluster_" + stage)
		if err != nil {
			return nil, fmt.Errorf("failed to create stage cluster: %w", err)
		}
		cluster.SetLabel(models.StageName(stage))

		node, err := cluster.CreateNodeByName("stage_" + stage)
		if err != nil {
			return nil, fmt.Errorf("failed to create stage node: %w", err)
		}
		node.SetShape(cgraph.BoxShape)
		node.SetStyle(cgraph.FilledNodeStyle)
		node.SetFillColor(stageColor(stage))
		stageNodes[stage] = node

		if prev != nil {
			edge, err := graph.CreateEdgeByName("next_"+stage, prev, node)
			if err != nil {
				return nil, fmt.Errorf("failed to create stage edge: %w", err)
			}
			edge.SetStyle(cgraph.DottedEdgeStyle)
		}
		prev = node
	}

	board := map[string][]models.Opportunity{}
	for _, o := range opps {
		board[o.Stage] = append(board[o.Stage], o)
	}
	for _, stage := range models.Stages {
		total := 0.0
		for _, o := range board[stage] {
			total += o.Value
		}
		stageNodes[stage].SetLabel(fmt.Sprintf("%s\n%d | %s", models.StageName(stage), len(board[stage]), FormatBRL(total)))
	}

	oppNodes := make(map[string]*cgraph.Node, len(opps))
	for _, o := range opps {
		stageNode, ok := stageNodes[o.Stage]
		if !ok {
			continue
		}
		node, err := graph.CreateNodeByName("opp_" + o.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create opportunity node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n%s", o.Name, FormatBRL(o.Value)))
		node.SetShape(cgraph.NoteShape)
		oppNodes[o.ID] = node

		if _, err := graph.CreateEdgeByName("in_"+o.ID, stageNode, node); err != nil {
			return nil, fmt.Errorf("failed to create edge: %w", err)
		}
	}

	if len(clients) > 0 {
		if err := linkClients(graph, opps, clients, oppNodes); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, format, &buf); err != nil {
		return nil, fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.Bytes(), nil
}

func linkClients(graph *cgraph.Graph, opps []models.Opportunity, clients []models.Client, oppNodes map[string]*cgraph.Node) error {
	clientNodes := make(map[string]*cgraph.Node, len(clients))
	for _, c := range clients {
		node, err := graph.CreateNodeByName("client_" + c.ID)
		if err != nil {
			return fmt.Errorf("failed to create client node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n(%s)", c.FullName, c.Status))
		node.SetShape(cgraph.EllipseShape)
		node.SetStyle(cgraph.FilledNodeStyle)
		node.SetFillColor("lightgreen")
		clientNodes[c.ID] = node
	}

	for _, o := range opps {
		oppNode, ok := oppNodes[o.ID]
		if !ok {
			continue
		}
		clientID := o.ClientID
		if _, linked := clientNodes[clientID]; !linked {
			clientID = ""
			for _, c := range clients {
				if models.SameName(c.FullName, o.ClientName) {
					clientID = c.ID
					break
				}
			}
		}
		clientNode, ok := clientNodes[clientID]
		if !ok {
			continue
		}
		edge, err := graph.CreateEdgeByName("owns_"+o.ID, clientNode, oppNode)
		if err != nil {
			return fmt.Errorf("failed to create client edge: %w", err)
		}
		edge.SetStyle(cgraph.DashedEdgeStyle)
	}
	return nil
}

func stageColor(stage string) string {
	switch stage {
	case models.StageClosedWon:
		return "palegreen"
	case models.StageClosedLost:
		return "lightpink"
	case models.StageProposal, models.StageNegotiation:
		return "lightyellow"
	}
	return "lightblue"
}
