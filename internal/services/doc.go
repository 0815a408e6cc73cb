// Package services holds cross-cutting helpers shared by showgrab components:
// the error taxonomy used to classify job failures and the context annotations
// that let loggers tag lines with item and run identifiers.
package services
