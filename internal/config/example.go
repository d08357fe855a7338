package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// DumpExampleConfig writes an example configuration to the provided writer
func DumpExampleConfig(w io.Writer) error {
	example := Default()
	example.Upstream.TimeoutMS = 10000

	var node yaml.Node
	if err := node.Encode(example); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	header := `# =============================================================================
# Air Monitor Exporter Example Configuration
# =============================================================================
# Copy this file to config.yaml (or point AIRMON_CONFIG at it).
#
# The session cookies are left empty here and the exporter refuses to start
# until they are supplied through AT_ACBUK and UBID_ACBUK, either in the
# environment or in a .env file.
# Other overrides: AIRMON_SERVER_HOST, AIRMON_SERVER_PORT,
# AIRMON_UPSTREAM_STATE_URL, AIRMON_UPSTREAM_TIMEOUT_MS,
# AIRMON_LOG_LEVEL, AIRMON_LOG_FORMAT
# =============================================================================

`
	if _, err := fmt.Fprint(w, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(&node); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %w", err)
	}

	return nil
}
