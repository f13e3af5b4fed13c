package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tailored-agentic-units/coach/artifact"
	"github.com/tailored-agentic-units/coach/core/protocol"
	"github.com/tailored-agentic-units/coach/llm"
	"github.com/tailored-agentic-units/coach/observability"
	"github.com/tailored-agentic-units/coach/prompt"
)

// fillWindow is how many trailing turns a template fill considers.
const fillWindow = 20

type templateSpec struct {
	file     string
	sections int
}

var templateSpecs = map[artifact.Kind]templateSpec{
	artifact.KindEpic:    {file: "epic_template.txt", sections: 19},
	artifact.KindFeature: {file: "feature_template.txt", sections: 10},
	artifact.KindStory:   {file: "user_story_template.txt", sections: 8},
}

const fillPrompt = `Based on the following discovery conversation, please fill out the %[1]s template with all %[2]d sections.

For each section in the template, replace the [Fill in here] placeholders with specific, detailed information based on the conversation.

If information is not available in the conversation for a particular field, provide a reasonable inference or note what additional information would be needed.

DISCOVERY CONVERSATION:
%[3]s

%[1]s CONTEXT:
Active Epic: %[4]s
Active Feature: %[5]s

TEMPLATE TO FILL:
%[6]s

Please provide the completed template with all sections filled in. Maintain the template structure and section headers.`

const extractPrompt = `You are extracting %[1]s proposals from a conversation. Below is the conversation where multiple %[2]s were proposed for %[3]s.

Active %[4]s:
%[5]s

Conversation:
%[6]s

I can see these %[1]s proposals in the conversation. For EACH %[7]s listed, you must create a SEPARATE filled template.

%[8]s Template Structure:
%[9]s

CRITICAL INSTRUCTIONS - READ CAREFULLY:
1. Count the %[2]s: How many distinct %[2]s were proposed? (e.g., %[10]s 1, %[10]s 2, %[10]s 3, etc.)
2. Create ONE filled template for EACH %[7]s - if there are 5 %[2]s, you MUST create 5 separate templates
3. Use the EXACT %[7]s name/heading from the proposal
4. After EACH completed template, add this exact line on its own: %[11]s
5. Fill all fields based on the conversation - use "Not specified in conversation" for missing information
6. Do NOT combine multiple %[2]s into one template
7. Do NOT add any explanations - ONLY the filled templates separated by %[11]s

Example format if there are 3 %[2]s:
[FILLED TEMPLATE FOR %[12]s 1]
%[11]s
[FILLED TEMPLATE FOR %[12]s 2]
%[11]s
[FILLED TEMPLATE FOR %[12]s 3]

NOW: Create a separate filled template for EVERY %[1]s proposal. Begin now:`

// FillTemplateRequest asks for a template filled from a conversation.
// Without ConversationHistory the live session's history is used, and
// without ActiveEpic or ActiveFeature the session's drafts.
type FillTemplateRequest struct {
	SessionID           string          `json:"sessionId,omitempty"`
	Type                string          `json:"template_type"`
	ConversationHistory []protocol.Turn `json:"conversationHistory,omitempty"`
	ActiveEpic          string          `json:"activeEpic,omitempty"`
	ActiveFeature       string          `json:"activeFeature,omitempty"`
	Generation
}

// FillTemplateResponse is the filled template.
type FillTemplateResponse struct {
	SessionID string        `json:"sessionId,omitempty"`
	Type      artifact.Kind `json:"template_type"`
	Content   string        `json:"content"`
	Message   string        `json:"message"`
}

// FillTemplate loads the template for the requested type from the knowledge
// directory and asks the model to fill every section from the last 20
// turns. With a SessionID the filled template becomes the session's draft.
func (c *Coach) FillTemplate(ctx context.Context, req FillTemplateRequest) (*FillTemplateResponse, error) {
	kind, err := artifact.ParseKind(req.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, req.Type)
	}
	spec, ok := templateSpecs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, req.Type)
	}

	llmReq, err := req.request(c.cfg.LLM.Timeout(prompt.IntentDraft.Task()))
	if err != nil {
		return nil, err
	}

	history, epic, feature := req.ConversationHistory, req.ActiveEpic, req.ActiveFeature
	s, err := c.lookup(req.SessionID)
	if err != nil {
		return nil, err
	}
	if s != nil {
		if len(history) == 0 {
			history = s.History()
		}
		if epic == "" {
			d, _ := s.Draft(artifact.KindEpic)
			epic = d.Content
		}
		if feature == "" {
			d, _ := s.Draft(artifact.KindFeature)
			feature = d.Content
		}
	}

	template, err := c.template(ctx, spec.file)
	if err != nil {
		return nil, err
	}

	label := strings.ToUpper(string(kind))
	text := fmt.Sprintf(fillPrompt,
		label,
		spec.sections,
		transcript(tail(history, fillWindow), roleLabel),
		orNone(epic, "None"),
		orNone(feature, "None"),
		template,
	)

	start := time.Now()
	resp, err := c.generator.Generate(ctx, llmReq, []protocol.Turn{protocol.NewTurn(protocol.RoleUser, text)})
	if err != nil {
		c.fail(ctx, "coach.FillTemplate", req.SessionID, err)
		return nil, err
	}

	if s != nil {
		s.SetDraft(artifact.NewDraft(kind, resp.Content))
	}

	c.emit(ctx, EventTemplateFilled, observability.LevelInfo, "coach.FillTemplate", map[string]any{
		"session_id":              req.SessionID,
		"kind":                    string(kind),
		"turns":                   min(len(history), fillWindow),
		observability.DurationKey: time.Since(start),
	})

	return &FillTemplateResponse{
		SessionID: req.SessionID,
		Type:      kind,
		Content:   resp.Content,
		Message:   fmt.Sprintf("%s template filled successfully", capitalize(string(kind))),
	}, nil
}

// ExtractRequest asks for one filled template per Feature or User Story
// proposed in a conversation. Without ConversationHistory the live
// session's history is used.
type ExtractRequest struct {
	SessionID           string          `json:"sessionId,omitempty"`
	ActiveEpic          string          `json:"activeEpic,omitempty"`
	ActiveFeature       string          `json:"activeFeature,omitempty"`
	ConversationHistory []protocol.Turn `json:"conversationHistory,omitempty"`
	Generation
}

// ExtractResponse holds the filled templates in proposal order.
type ExtractResponse struct {
	Kind  artifact.Kind `json:"kind"`
	Items []string      `json:"items"`
}

// ExtractFeatures fills a Feature template for each Feature proposed for
// the active Epic.
func (c *Coach) ExtractFeatures(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	return c.extract(ctx, artifact.KindFeature, req)
}

// ExtractStories fills a User Story template for each story proposed for
// the active Feature. ActiveEpic stands in for a missing ActiveFeature.
func (c *Coach) ExtractStories(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	return c.extract(ctx, artifact.KindStory, req)
}

type extraction struct {
	subject   string
	plural    string
	parent    string
	active    string
	singular  string
	heading   string
	marker    string
	separator string
}

var extractions = map[artifact.Kind]extraction{
	artifact.KindFeature: {
		subject:   "feature",
		plural:    "features",
		parent:    "an Epic",
		active:    "Epic",
		singular:  "feature",
		heading:   "Feature",
		marker:    "FEATURE",
		separator: artifact.FeatureSeparator,
	},
	artifact.KindStory: {
		subject:   "user story",
		plural:    "stories",
		parent:    "a Feature",
		active:    "Feature",
		singular:  "story",
		heading:   "User Story",
		marker:    "STORY",
		separator: artifact.StorySeparator,
	},
}

func (c *Coach) extract(ctx context.Context, kind artifact.Kind, req ExtractRequest) (*ExtractResponse, error) {
	x := extractions[kind]
	source := "coach.Extract" + x.heading

	llmReq, err := req.request(c.cfg.LLM.Timeout(llm.TaskExtract))
	if err != nil {
		return nil, err
	}

	history := req.ConversationHistory
	parent := req.ActiveEpic
	if kind == artifact.KindStory && req.ActiveFeature != "" {
		parent = req.ActiveFeature
	}

	s, err := c.lookup(req.SessionID)
	if err != nil {
		return nil, err
	}
	if s != nil {
		if len(history) == 0 {
			history = s.History()
		}
		if parent == "" {
			parentKind := artifact.KindEpic
			if kind == artifact.KindStory {
				parentKind = artifact.KindFeature
			}
			d, _ := s.Draft(parentKind)
			parent = d.Content
		}
	}

	template, err := c.template(ctx, templateSpecs[kind].file)
	if err != nil {
		return nil, err
	}

	text := fmt.Sprintf(extractPrompt,
		x.subject,
		x.plural,
		x.parent,
		x.active,
		orNone(parent, "Not specified"),
		transcript(history, speakerLabel),
		x.singular,
		x.heading,
		template,
		x.heading,
		x.separator,
		x.marker,
	)

	start := time.Now()
	resp, err := c.generator.Generate(ctx, llmReq, []protocol.Turn{protocol.NewTurn(protocol.RoleUser, text)})
	if err != nil {
		c.fail(ctx, source, req.SessionID, err)
		return nil, err
	}

	items := artifact.Split(resp.Content, x.separator)
	if items == nil {
		items = []string{}
	}

	c.emit(ctx, EventExtractComplete, observability.LevelInfo, source, map[string]any{
		"session_id":              req.SessionID,
		"kind":                    string(kind),
		"count":                   len(items),
		"response_length":         len(resp.Content),
		observability.DurationKey: time.Since(start),
	})

	return &ExtractResponse{Kind: kind, Items: items}, nil
}

func (c *Coach) template(ctx context.Context, name string) (string, error) {
	content, err := c.templates.Content(ctx, name)
	if err != nil {
		if errors.Is(err, prompt.ErrPromptNotFound) {
			return "", fmt.Errorf("%w: %s", ErrTemplateMissing, name)
		}
		return "", err
	}
	return content, nil
}

func roleLabel(r protocol.Role) string {
	return strings.ToUpper(string(r))
}

func speakerLabel(r protocol.Role) string {
	if r == protocol.RoleUser {
		return "User"
	}
	return "Coach"
}

func transcript(turns []protocol.Turn, label func(protocol.Role) string) string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = label(t.Role) + ": " + t.Content
	}
	return strings.Join(lines, "\n\n")
}

func tail(turns []protocol.Turn, n int) []protocol.Turn {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

func orNone(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
