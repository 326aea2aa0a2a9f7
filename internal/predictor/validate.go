package predictor

import (
	"fmt"
	"math"
)

// validator is implemented by regressors whose decoded state can be checked
// against the number of input columns before use
type validator interface {
	validate(features int) error
}

func (t *Tree) validate(features int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("%w: tree has no nodes", ErrInvalidModel)
	}
	for i, nd := range t.Nodes {
		if nd.Left < 0 {
			continue
		}
		// children are stored after their parent, which also rules out cycles
		if nd.Left <= i || nd.Left >= len(t.Nodes) || nd.Right <= i || nd.Right >= len(t.Nodes) {
			return fmt.Errorf("%w: node %d has children %d/%d", ErrInvalidModel, i, nd.Left, nd.Right)
		}
		if nd.Feature < 0 || nd.Feature >= features {
			return fmt.Errorf("%w: node %d splits on column %d of %d", ErrInvalidModel, i, nd.Feature, features)
		}
	}
	return checkImportances(t.Importances, features)
}

func (f *Forest) validate(features int) error {
	if len(f.Trees) == 0 {
		return fmt.Errorf("%w: forest has no trees", ErrInvalidModel)
	}
	for i, tree := range f.Trees {
		if tree == nil {
			return fmt.Errorf("%w: tree %d is empty", ErrInvalidModel, i)
		}
		if err := tree.validate(features); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return checkImportances(f.Importances, features)
}

func (b *Boosting) validate(features int) error {
	if len(b.Stages) == 0 {
		return fmt.Errorf("%w: boosting has no stages", ErrInvalidModel)
	}
	for i, stage := range b.Stages {
		if stage == nil {
			return fmt.Errorf("%w: stage %d is empty", ErrInvalidModel, i)
		}
		if err := stage.validate(features); err != nil {
			return fmt.Errorf("stage %d: %w", i, err)
		}
	}
	return checkImportances(b.Importances, features)
}

func (l *Linear) validate(features int) error {
	if len(l.Coefficients) != features {
		return fmt.Errorf("%w: %d coefficients for %d columns", ErrInvalidModel, len(l.Coefficients), features)
	}
	return nil
}

func (m *Mean) validate(int) error {
	if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
		return fmt.Errorf("%w: mean is %v", ErrInvalidModel, m.Value)
	}
	return nil
}

func checkImportances(scores []float64, features int) error {
	if len(scores) != 0 && len(scores) != features {
		return fmt.Errorf("%w: %d importances for %d columns", ErrInvalidModel, len(scores), features)
	}
	return nil
}
