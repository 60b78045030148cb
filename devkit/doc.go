// Package devkit provides scripted fakes for exercising the Connect API client
// and the batch orchestrator without a network.
package devkit
