package notify

// Module is the area of the client an event navigates to.
type Module string

const (
	ModuleApproval Module = "approval"
	ModuleTracking Module = "tracking"
	ModuleProjects Module = "projects"
)

// Target is where opening an event takes the user.
type Target struct {
	Module    Module `json:"module"`
	ProjectID *uint  `json:"project_id,omitempty"`
}

// TargetFor maps an event to the screen that shows its subject.
func TargetFor(ev Event) Target {
	t := Target{ProjectID: ev.ProjectID}
	switch ev.Category {
	case CategoryPendingProject:
		t.Module = ModuleApproval
	case CategoryEvidence, CategoryStoryApproved:
		t.Module = ModuleTracking
	default:
		t.Module = ModuleProjects
	}
	return t
}
