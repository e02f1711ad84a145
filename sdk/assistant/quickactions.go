package assistant

// QuickAction is a suggested prompt for the current workflow phase.
// Selecting one is identical to typing its prompt and sending it; there is
// no separate send path.
type QuickAction struct {
	Label  string
	Prompt string
}

// quickActionsByPhase is the data-driven phase-to-suggestions mapping.
// Order matters: the panel renders these as given.
var quickActionsByPhase = map[string][]QuickAction{
	PhaseOnboarding: {
		{Label: "Kickoff plan", Prompt: "Draft a 30-day onboarding plan for this customer"},
		{Label: "Welcome email", Prompt: "Draft a welcome email introducing their success team"},
		{Label: "Stakeholders", Prompt: "List the key stakeholders we should engage during onboarding"},
	},
	PhaseAdoption: {
		{Label: "Usage summary", Prompt: "Summarize this customer's product usage over the last 30 days"},
		{Label: "Feature gaps", Prompt: "Which features is this customer not using that similar accounts rely on?"},
		{Label: "Check-in email", Prompt: "Draft a check-in email highlighting their recent wins"},
	},
	PhaseRenewal: {
		{Label: "Renewal brief", Prompt: "Prepare a renewal briefing for this customer"},
		{Label: "Value recap", Prompt: "Summarize the value this customer has gotten since their last renewal"},
		{Label: "Renewal email", Prompt: "Draft a renewal outreach email for the account owner"},
	},
	PhaseRisk: {
		{Label: "Health summary", Prompt: "Summarize this customer"},
		{Label: "Risk factors", Prompt: "What are the top churn risk factors for this customer?"},
		{Label: "Save play", Prompt: "Draft a save play for this at-risk customer"},
	},
}

// QuickActionsFor returns the ordered suggestions for a phase. Unknown
// phases get none. The returned slice is a copy; callers may not mutate
// the mapping.
func QuickActionsFor(phase string) []QuickAction {
	actions, ok := quickActionsByPhase[phase]
	if !ok {
		return nil
	}
	return append([]QuickAction(nil), actions...)
}
