package handlers

import "github.com/wolfman30/hospital-ai-scheduler/pkg/logging"

func testLogger() *logging.Logger {
	return logging.New("error")
}
