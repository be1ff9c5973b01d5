// Package model builds, fits, and persists the multi-label genre pipeline.
//
// A Pipeline chains a TF-IDF vectorizer with a one-vs-rest classifier: one
// independent linear estimator per label. The binary estimator is a strategy
// chosen by configuration:
//
//   - linear_svc: L2-regularised squared-hinge SVM solved by dual coordinate
//     descent.
//   - logistic: L2-regularised logistic regression solved by full-batch
//     gradient descent.
//
// Both strategies produce a weight vector and bias per label, so prediction and
// persistence do not depend on which one trained the model. Fitted pipelines
// serialize to a gzip-compressed gob envelope carrying a SHA-256 checksum of
// the payload.
package model
