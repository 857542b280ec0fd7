package entity_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hapi-labs/hapi-indexer/entity"
)

func TestParseReporterRole(t *testing.T) {
	t.Parallel()

	role, err := entity.ParseReporterRole(1)
	require.NoError(t, err)
	require.Equal(t, entity.RoleTracer, role)
	require.Equal(t, "tracer", role.String())

	_, err = entity.ParseReporterRole(4)
	require.Error(t, err)
}

func TestParseReporterStatus(t *testing.T) {
	t.Parallel()

	status, err := entity.ParseReporterStatus(2)
	require.NoError(t, err)
	require.Equal(t, entity.ReporterUnstaking, status)
	require.Equal(t, "unstaking", status.String())

	_, err = entity.ParseReporterStatus(3)
	require.Error(t, err)
}

func TestParseCaseStatus(t *testing.T) {
	t.Parallel()

	status, err := entity.ParseCaseStatus(0)
	require.NoError(t, err)
	require.Equal(t, entity.CaseClosed, status)
	require.Equal(t, "closed", status.String())

	status, err = entity.ParseCaseStatus(1)
	require.NoError(t, err)
	require.Equal(t, entity.CaseOpen, status)
	require.Equal(t, "open", status.String())

	_, err = entity.ParseCaseStatus(2)
	require.Error(t, err)
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	category, err := entity.ParseCategory(2)
	require.NoError(t, err)
	require.Equal(t, entity.CategoryMerchantService, category)
	require.Equal(t, "merchant_service", category.String())

	category, err = entity.ParseCategory(18)
	require.NoError(t, err)
	require.Equal(t, entity.CategoryChildAbuse, category)

	_, err = entity.ParseCategory(19)
	require.Error(t, err)
}

func TestEnumsMarshalText(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(map[string]interface{}{
		"role":     entity.RolePublisher,
		"status":   entity.ReporterActive,
		"case":     entity.CaseOpen,
		"category": entity.CategoryMixer,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"role":"publisher","status":"active","case":"open","category":"mixer"}`, string(raw))
}
