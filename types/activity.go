package types

// Activity types emitted by the synthesizer
const (
	ActivityMasumiVerification = "masumi_verification"
	ActivityMasumiDiscovery    = "masumi_discovery"
	ActivityAgentHiring        = "agent_hiring"
	ActivityHydraPayment       = "hydra_payment"
	ActivityCardanoAudit       = "cardano_audit"
	ActivityReputationUpdate   = "reputation_update"
	ActivitySokosumiHire       = "sokosumi_hire"
)

// ActivityRecord is a display-only blockchain or marketplace event
type ActivityRecord struct {
	Type        string                 `json:"type"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Details     map[string]interface{} `json:"details"`
	Timestamp   string                 `json:"timestamp"`
	Status      string                 `json:"status"`
	IsSimulated bool                   `json:"is_simulated"`
}
