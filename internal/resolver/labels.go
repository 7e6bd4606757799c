package resolver

import "fmt"

// Labels names the three kept columns of a measurement file.
type Labels struct {
	Energy      string `json:"energy"`
	Density     string `json:"density"`
	Uncertainty string `json:"uncertainty"`
}

var (
	StandardLabels = Labels{Energy: "E (MeV)", Density: "NLD", Uncertainty: "NLD uncertainty"}
	CompactLabels  = Labels{Energy: "E", Density: "NLD", Uncertainty: "NLD_unc"}
)

func (l Labels) Columns() []string {
	return []string{l.Energy, l.Density, l.Uncertainty}
}

// LabelsFor maps a profile name to its labels. The "custom" profile takes
// exactly three column names.
func LabelsFor(profile string, custom []string) (Labels, error) {
	switch profile {
	case "", "standard":
		return StandardLabels, nil
	case "compact":
		return CompactLabels, nil
	case "custom":
		if len(custom) != 3 {
			return Labels{}, fmt.Errorf("custom labels need 3 columns, got %d", len(custom))
		}
		return Labels{Energy: custom[0], Density: custom[1], Uncertainty: custom[2]}, nil
	default:
		return Labels{}, fmt.Errorf("unknown label profile %q", profile)
	}
}
