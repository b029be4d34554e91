package clickhouse

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// SetupClient creates a ClickHouse client and verifies connectivity
func SetupClient(chConfig *Config, logger logrus.FieldLogger) (ClientInterface, error) {
	chClient, err := NewClient(logger, chConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create ClickHouse client: %w", err)
	}

	if startErr := chClient.Start(); startErr != nil {
		return nil, fmt.Errorf("failed to start ClickHouse client: %w", startErr)
	}

	return chClient, nil
}
