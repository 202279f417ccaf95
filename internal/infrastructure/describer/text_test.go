package describer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"weld-inspector/internal/domain/entity"
)

func TestText_DescribeDefective(t *testing.T) {
	d := NewText(entity.ClassNames{"porosity", "UNDERCUT"})
	result := &entity.InspectionResult{
		Verdict: entity.VerdictDefective,
		Defects: []entity.DefectEntry{
			{Source: entity.SourceDetector, ClassID: 0, Confidence: 0.65},
			{Source: entity.SourceDetector, ClassID: 1, Confidence: 0.304},
			entity.NewCrackEntry(0.4),
		},
	}

	desc, err := d.Describe(context.Background(), result)
	require.NoError(t, err)
	require.Equal(t, "DEFECTIVE: "+msgDefective+
		"\n\nDetected issues:"+
		"\n• Porosity (Confidence: 65%)"+
		"\n• Undercut (Confidence: 30%)"+
		"\n• Possible surface crack detected", desc.Text)
}

func TestText_DescribeGood(t *testing.T) {
	desc, err := NewText(nil).Describe(context.Background(), &entity.InspectionResult{Verdict: entity.VerdictGood})
	require.NoError(t, err)
	require.Equal(t, "GOOD: "+msgGood, desc.Text)
}

func TestText_UnknownClass(t *testing.T) {
	lines := NewText(nil).DefectLines([]entity.DefectEntry{{Source: entity.SourceDetector, ClassID: 4, Confidence: 0.5}})
	require.Equal(t, []string{"Class_4 (Confidence: 50%)"}, lines)
}

func TestText_NilResult(t *testing.T) {
	_, err := NewText(nil).Describe(context.Background(), nil)
	require.Error(t, err)
}
