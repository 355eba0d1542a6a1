package domain

// Plan bundles everything one optimization run consumes.
type Plan struct {
	Name       string
	Tasks      []Task
	Objectives []Objective
	Run        RunConfig
}

// TaskIDs returns the task identifiers in declaration order.
func (p *Plan) TaskIDs() []string {
	ids := make([]string, len(p.Tasks))
	for i := range p.Tasks {
		ids[i] = p.Tasks[i].ID.String()
	}
	return ids
}

// ObjectiveIDs returns the objective identifiers in score vector order.
func (p *Plan) ObjectiveIDs() []string {
	ids := make([]string, len(p.Objectives))
	for i := range p.Objectives {
		ids[i] = p.Objectives[i].ID
	}
	return ids
}
