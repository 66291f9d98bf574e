// Package process groups and kills external converter processes.
package process
