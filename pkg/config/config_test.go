package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnbasta/ynab-split-budget/pkg/config"
)

const validConfig = `user_1:
  name: Alice
  token: token-alice
  budget_id: budget-alice
  split_account_id: split-alice
  split_transfer_payee_id: payee-alice
user_2:
  name: Bob
  token: token-bob
  budget_id: budget-bob
  split_account_id: split-bob
  split_transfer_payee_id: payee-bob
cursor_path: /var/lib/ysb/cursors.yaml
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, validConfig))

	require.NoError(t, err)
	assert.Equal(t, "Alice", cfg.User1.Name)
	assert.Equal(t, "token-bob", cfg.User2.Token)
	assert.Equal(t, "/var/lib/ysb/cursors.yaml", cfg.CursorPath)
}

func TestLoadConfig_Defaults(t *testing.T) {
	content := `user_1:
  name: Alice
  token: token-alice
  budget_id: budget-alice
  split_account_id: split-alice
  split_transfer_payee_id: payee-alice
user_2:
  name: Bob
  token: token-bob
  budget_id: budget-bob
  split_account_id: split-bob
  split_transfer_payee_id: payee-bob
`
	cfg, err := config.LoadConfig(writeConfig(t, content))

	require.NoError(t, err)
	assert.Equal(t, "purple", cfg.FlagColor)
	assert.Equal(t, "last_server_knowledge.yaml", cfg.CursorPath)
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.IsProduction)
}

func TestLoadConfig_MissingToken(t *testing.T) {
	content := `user_1:
  name: Alice
  budget_id: budget-alice
  split_account_id: split-alice
  split_transfer_payee_id: payee-alice
user_2:
  name: Bob
  token: token-bob
  budget_id: budget-bob
  split_account_id: split-bob
  split_transfer_payee_id: payee-bob
`
	_, err := config.LoadConfig(writeConfig(t, content))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validating config")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
}

func TestUserConfig_User(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, validConfig))
	require.NoError(t, err)

	user := cfg.User1.User()
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "budget-alice", user.BudgetID)
	assert.Equal(t, "split-alice", user.SplitAccountID)
	assert.Equal(t, "payee-alice", user.SplitTransferPayeeID)
}
