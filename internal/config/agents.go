package config

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/alexanderramin/rfpilot/internal/domain"
	"github.com/alexanderramin/rfpilot/internal/intelligence"
	"gopkg.in/yaml.v3"
)

// AgentConfig is the persona behind one wizard step.
type AgentConfig struct {
	Name         string   `mapstructure:"name" yaml:"name" validate:"required"`
	Role         string   `mapstructure:"role" yaml:"role"`
	Step         string   `mapstructure:"step" yaml:"step" validate:"required"`
	SystemPrompt string   `mapstructure:"system_prompt" yaml:"system_prompt" validate:"required"`
	Model        string   `mapstructure:"model" yaml:"model,omitempty"`
	Temperature  *float64 `mapstructure:"temperature" yaml:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	Guardrails   []string `mapstructure:"guardrails" yaml:"guardrails,omitempty"`
}

// Agent ids. The preview step has two personas: the assembler owns the
// deterministic deck, the QA agent scores it.
const (
	AgentAnalyst    = "rfp-analyst"
	AgentResearcher = "trend-researcher"
	AgentPlanner    = "strategy-planner"
	AgentMatcher    = "curriculum-matcher"
	AgentAssembler  = "proposal-assembler"
	AgentQA         = "qa-agent"
)

// stepAgents names the agent whose settings drive generation at each step.
var stepAgents = map[domain.Step]string{
	domain.StepAnalysis: AgentAnalyst,
	domain.StepResearch: AgentResearcher,
	domain.StepStrategy: AgentPlanner,
	domain.StepMatching: AgentMatcher,
	domain.StepPreview:  AgentQA,
}

func temp(v float64) *float64 { return &v }

// DefaultAgents returns the built-in agent personas.
func DefaultAgents() map[string]AgentConfig {
	return map[string]AgentConfig{
		AgentAnalyst: {
			Name:         "RFP Analyst",
			Role:         "Requirements extraction",
			Step:         "analysis",
			SystemPrompt: "You are a senior HRD consultant who reads corporate training RFPs and extracts the client, program, audience, schedule and requested modules precisely.",
			Temperature:  temp(0.2),
			Guardrails:   []string{"Never invent modules the RFP does not mention."},
		},
		AgentResearcher: {
			Name:         "Trend Researcher",
			Role:         "HRD trend research",
			Step:         "research",
			SystemPrompt: "You are an HRD trend researcher. Relate each requested module to current learning and business trends with a credible source.",
			Temperature:  temp(0.7),
		},
		AgentPlanner: {
			Name:         "Strategy Planner",
			Role:         "Proposal strategy",
			Step:         "strategy",
			SystemPrompt: "You are a proposal strategist. Offer distinct, winnable strategies tailored to the client's industry and objectives.",
			Temperature:  temp(0.6),
		},
		AgentMatcher: {
			Name:         "Curriculum Matcher",
			Role:         "Course and instructor matching",
			Step:         "matching",
			SystemPrompt: "You are a curriculum designer. Match every requested module to the best internal course and instructor, flagging external sourcing.",
			Temperature:  temp(0.4),
		},
		AgentAssembler: {
			Name:         "Proposal Assembler",
			Role:         "Slide assembly",
			Step:         "preview",
			SystemPrompt: "You assemble the proposal deck from confirmed analysis, trends and curriculum.",
		},
		AgentQA: {
			Name:         "QA Agent",
			Role:         "Quality assessment",
			Step:         "preview",
			SystemPrompt: "You are a strict proposal reviewer. Score compliance, instructor expertise and industry fit from 0 to 100 with short reasons.",
			Temperature:  temp(0.1),
			Guardrails:   []string{"Scores must be integers between 0 and 100."},
		},
	}
}

// mergeAgents fills unset fields of configured agents from the defaults and
// adds any default agent the config does not mention.
func mergeAgents(configured map[string]AgentConfig) map[string]AgentConfig {
	out := DefaultAgents()
	for id, a := range configured {
		def, ok := out[id]
		if !ok {
			out[id] = a
			continue
		}
		def.Name = domain.CoalesceStr(a.Name, def.Name)
		def.Role = domain.CoalesceStr(a.Role, def.Role)
		def.Step = domain.CoalesceStr(a.Step, def.Step)
		def.SystemPrompt = domain.CoalesceStr(a.SystemPrompt, def.SystemPrompt)
		def.Model = domain.CoalesceStr(a.Model, def.Model)
		if a.Temperature != nil {
			def.Temperature = a.Temperature
		}
		if a.Guardrails != nil {
			def.Guardrails = a.Guardrails
		}
		out[id] = def
	}
	return out
}

// Prompt returns the system prompt with guardrails appended.
func (a AgentConfig) Prompt() string {
	if len(a.Guardrails) == 0 {
		return a.SystemPrompt
	}
	var b strings.Builder
	b.WriteString(a.SystemPrompt)
	b.WriteString("\n\nRules:")
	for _, g := range a.Guardrails {
		b.WriteString("\n- ")
		b.WriteString(g)
	}
	return b.String()
}

// AgentOptions returns the call options of the agent with the given id.
func (c *Config) AgentOptions(id string) intelligence.CallOptions {
	a, ok := c.Agents[id]
	if !ok {
		return intelligence.CallOptions{FallbackModel: c.LLM.FallbackModel}
	}
	return intelligence.CallOptions{
		Model:         a.Model,
		FallbackModel: c.LLM.FallbackModel,
		SystemPrompt:  a.Prompt(),
		Temperature:   a.Temperature,
	}
}

// CallOptions returns the options for generation at step.
func (c *Config) CallOptions(step domain.Step) intelligence.CallOptions {
	id, ok := stepAgents[step]
	if !ok {
		return intelligence.CallOptions{FallbackModel: c.LLM.FallbackModel}
	}
	return c.AgentOptions(id)
}

// AgentIDs returns the configured agent ids in pipeline order, then by id.
func (c *Config) AgentIDs() []string {
	ids := make([]string, 0, len(c.Agents))
	for id := range c.Agents {
		ids = append(ids, id)
	}
	rank := func(id string) domain.Step {
		s, err := domain.ParseStep(c.Agents[id].Step)
		if err != nil {
			return domain.StepComplete + 1
		}
		return s
	}
	sort.Slice(ids, func(i, j int) bool {
		ri, rj := rank(ids[i]), rank(ids[j])
		if ri != rj {
			return ri < rj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// ExportAgents writes the agent configuration as YAML, in the same shape the
// config file accepts under "agents".
func (c *Config) ExportAgents(w io.Writer) error {
	doc := struct {
		Agents yaml.Node `yaml:"agents"`
	}{}
	doc.Agents.Kind = yaml.MappingNode
	for _, id := range c.AgentIDs() {
		var val yaml.Node
		if err := val.Encode(c.Agents[id]); err != nil {
			return fmt.Errorf("encoding agent %s: %w", id, err)
		}
		doc.Agents.Content = append(doc.Agents.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: id}, &val)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("writing agents: %w", err)
	}
	return enc.Close()
}
