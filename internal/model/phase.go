package model

// Phase identifies one stage of the provisioning or deployment protocol.
// Phases run strictly in sequence; plugins within a phase run concurrently.
type Phase string

const (
	// PhaseProvision creates or adopts the cloud resources themselves.
	PhaseProvision Phase = "provision"
	// PhaseTemplateDeploy pushes the combined infrastructure template in a
	// single atomic step between provision and configure.
	PhaseTemplateDeploy Phase = "template-deploy"
	// PhaseConfigure wires provisioned resources together once every
	// resource exists and template outputs are recorded.
	PhaseConfigure Phase = "configure"
	// PhaseDeploy ships application code onto provisioned resources.
	PhaseDeploy Phase = "deploy"
)
