package engine

import (
	"github.com/soyeahso/shopdesk/internal/compose"
	"github.com/soyeahso/shopdesk/internal/domain"
)

// StepKind selects how a step interprets the user's answer.
type StepKind int

const (
	// StepText stores the answer (or the image sentinel) and advances.
	StepText StepKind = iota
	// StepPhoto accepts only an image or the skip keyword and ends the flow.
	StepPhoto
	// StepTypedText needs a typed answer; an image is met with the prompt again.
	StepTypedText
)

// Step is one question within a flow.
type Step struct {
	ID      domain.StepID
	Kind    StepKind
	Field   string
	Prompt  string
	Options []domain.QuickReply
	// Branch maps a normalized answer to the step that follows it.
	Branch map[string]domain.StepID
	// BranchOnly steps are reached through Branch and skipped by linear advance.
	BranchOnly bool
}

// Message returns the step's prompt with its quick replies and cancel.
func (s Step) Message() domain.PlainText {
	return compose.Prompt(s.Prompt, s.Options...)
}

// FlowDefinition is the static shape of one intake process.
type FlowDefinition struct {
	ID    domain.FlowID
	Name  string
	Steps []Step
	// StartField, when set, records the command that started the flow.
	StartField string
	// Card is the summary sent on completion. Flows without a card end with Done.
	Card *compose.CardSpec
	Done func(sess domain.Session) []domain.OutboundMessage
}

func (d *FlowDefinition) index(id domain.StepID) int {
	for i, s := range d.Steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// first returns the step a menu command starts at, or nil for zero-step flows.
func (d *FlowDefinition) first() *Step {
	for i := range d.Steps {
		if !d.Steps[i].BranchOnly {
			return &d.Steps[i]
		}
	}
	return nil
}

// step returns the step with the given ID.
func (d *FlowDefinition) step(id domain.StepID) (*Step, bool) {
	i := d.index(id)
	if i < 0 {
		return nil, false
	}
	return &d.Steps[i], true
}

// next returns the step following the one at index i given the normalized
// answer, or nil when the flow has no more steps.
func (d *FlowDefinition) next(i int, norm string) *Step {
	if target, ok := d.Steps[i].Branch[norm]; ok {
		if s, ok := d.step(target); ok {
			return s
		}
	}
	for j := i + 1; j < len(d.Steps); j++ {
		if !d.Steps[j].BranchOnly {
			return &d.Steps[j]
		}
	}
	return nil
}

const (
	photoPrompt = "Send a photo if you have one, or tap Skip."
	thanks      = "Thank you! Our staff will contact you shortly."
)

func photoStep(prompt string) Step {
	return Step{ID: domain.StepImage, Kind: StepPhoto, Prompt: prompt, Options: []domain.QuickReply{compose.Skip}}
}

var (
	repairFlow = &FlowDefinition{
		ID:   domain.FlowRepair,
		Name: "repair",
		Steps: []Step{
			{
				ID:     domain.StepType,
				Field:  "type",
				Prompt: "What needs repairing?",
				Options: []domain.QuickReply{
					compose.Option("Computer", "computer"),
					compose.Option("Printer", "printer"),
					compose.Option("Other", "other"),
				},
				Branch: map[string]domain.StepID{"other": domain.StepEquipment},
			},
			{
				ID:         domain.StepEquipment,
				Field:      "equipment",
				Prompt:     "Which equipment is it? Please type the kind and model.",
				BranchOnly: true,
			},
			{
				ID:     domain.StepDetail,
				Field:  "detail",
				Prompt: "Please describe the problem, including any error messages.",
			},
			photoStep("Send a photo of the problem, or tap Skip."),
		},
		Card: &compose.CardSpec{
			Title:  "Repair request",
			Color:  "#E53935",
			Footer: thanks,
			Rows: []compose.RowSpec{
				{Key: "type", Label: "Device"},
				{Key: "equipment", Label: "Equipment", Optional: true},
				{Key: "detail", Label: "Problem", FreeText: true},
			},
		},
	}

	orgFlow = &FlowDefinition{
		ID:         domain.FlowOrg,
		Name:       "organization order",
		StartField: "type",
		Steps: []Step{
			{
				ID:     domain.StepDetail,
				Field:  "detail",
				Prompt: "Please tell us your organization's name and the items and quantities you need.",
			},
			photoStep("Send a photo of your purchase order or the items, or tap Skip."),
		},
		Card: &compose.CardSpec{
			Title:  "Organization order",
			Color:  "#1E88E5",
			Footer: "Thank you! We will send a quotation shortly.",
			Rows: []compose.RowSpec{
				{Key: "type", Label: "Request"},
				{Key: "detail", Label: "Order", FreeText: true},
			},
		},
	}

	inquiryFlow = &FlowDefinition{
		ID:         domain.FlowInquiry,
		Name:       "product inquiry",
		StartField: "type",
		Steps: []Step{
			{
				ID:     domain.StepProduct,
				Field:  "product",
				Prompt: "Which product would you like to ask about?",
			},
			photoStep(photoPrompt),
		},
		Card: &compose.CardSpec{
			Title:  "Product inquiry",
			Color:  "#43A047",
			Footer: thanks,
			Rows: []compose.RowSpec{
				{Key: "type", Label: "Request"},
				{Key: "product", Label: "Product", FreeText: true},
			},
		},
	}

	installFlow = &FlowDefinition{
		ID:   domain.FlowInstall,
		Name: "installation",
		Steps: []Step{
			{
				ID:     domain.StepType,
				Field:  "type",
				Prompt: "What would you like installed?",
				Options: []domain.QuickReply{
					compose.Option("CCTV", "cctv"),
					compose.Option("Network", "network"),
					compose.Option("Solar cell", "solar-cell"),
					compose.Option("Other", "other"),
				},
			},
			{
				ID:     domain.StepDetail,
				Field:  "detail",
				Prompt: "Please tell us the site address and anything we should know about the job.",
			},
			photoStep("Send a photo of the site, or tap Skip."),
		},
		Card: installCard("Installation request", "#FB8C00",
			compose.RowSpec{Key: "detail", Label: "Site", FreeText: true},
		),
	}

	// cctvFlow has the installation shape with no questions: the menu
	// command is the answer.
	cctvFlow = &FlowDefinition{
		ID:         domain.FlowCCTV,
		Name:       "CCTV installation",
		StartField: "type",
		Card:       installCard("CCTV installation request", "#6D4C41"),
	}

	statusFlow = &FlowDefinition{
		ID:   domain.FlowStatus,
		Name: "status check",
		Steps: []Step{
			{
				ID:     domain.StepNone,
				Kind:   StepTypedText,
				Field:  "identifier",
				Prompt: "Please send your phone number or repair ticket code.",
			},
		},
		Done: func(sess domain.Session) []domain.OutboundMessage {
			id, _ := sess.Field("identifier")
			return []domain.OutboundMessage{compose.Confirmation(
				"Thanks! We are looking up " + id + ". Our staff will reply here shortly.",
			)}
		},
	}
)

func installCard(title, color string, extra ...compose.RowSpec) *compose.CardSpec {
	return &compose.CardSpec{
		Title:  title,
		Color:  color,
		Footer: "Thank you! We will call you to arrange a site survey.",
		Rows:   append([]compose.RowSpec{{Key: "type", Label: "Service"}}, extra...),
	}
}

// defaultFlows returns the flow table keyed by flow ID.
func defaultFlows() map[domain.FlowID]*FlowDefinition {
	flows := map[domain.FlowID]*FlowDefinition{}
	for _, d := range []*FlowDefinition{repairFlow, orgFlow, inquiryFlow, installFlow, cctvFlow, statusFlow} {
		flows[d.ID] = d
	}
	return flows
}
