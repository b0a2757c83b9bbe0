//go:build !integration

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestImportFile_AccountMapping(t *testing.T) {
	data := []byte(`
accounts:
  - id: acct-1
    name: Acme Corp
    vertical: datacenter
    size_metric: 125000
    opt_out: true
measurements:
  - account_id: acct-1
    product_id: prod-9
    kpi: CSAT
    raw_value: "9"
    component: Customer Sentiment
`)

	var f importFile
	require.NoError(t, yaml.Unmarshal(data, &f))

	require.Len(t, f.Accounts, 1)
	acct := f.Accounts[0].model()
	assert.Equal(t, "acct-1", acct.ID)
	assert.Equal(t, "Acme Corp", acct.Name)
	assert.Equal(t, "datacenter", acct.Vertical)
	require.NotNil(t, acct.SizeMetric)
	assert.InDelta(t, 125000, *acct.SizeMetric, 0.001)
	assert.True(t, acct.OptOut)

	require.Len(t, f.Measurements, 1)
	m := f.Measurements[0]
	assert.Equal(t, "acct-1", m.AccountID)
	assert.Equal(t, "prod-9", m.ProductID)
	assert.Equal(t, "CSAT", m.KPI)
	assert.Equal(t, "9", m.RawValue)
	assert.Equal(t, "Customer Sentiment", m.Component)
}

func TestImportFile_OptionalAccountFields(t *testing.T) {
	data := []byte(`
accounts:
  - id: acct-2
    name: Initech
`)

	var f importFile
	require.NoError(t, yaml.Unmarshal(data, &f))

	require.Len(t, f.Accounts, 1)
	acct := f.Accounts[0].model()
	assert.Nil(t, acct.SizeMetric)
	assert.False(t, acct.OptOut)
	assert.Empty(t, acct.Vertical)
}
