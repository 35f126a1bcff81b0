// Copyright (c) Captchaflow Authors.
// Licensed under the MIT License.

/*
Package engine drives one grid challenge from consent checkbox to solved
indicator. It is an explicit state machine:

	CHECKBOX → (AUTO_SOLVED | CLASSIFYING) → SOLVING → SELECTING
	         → VERIFYING → (SOLVED | reload → CLASSIFYING)

The engine consumes its collaborators through ports — a browser driver, an
object detector and an image fetcher — and never constructs them itself.
Recovery is driven by the error taxonomy in types: transient and reload
conditions re-enter the loop at classification, bounded by MaxAttempts;
only a missing root surface (or context cancellation) is fatal.

Everything runs single-threaded: each browser interaction is a blocking
wait bounded by a timeout, and the canvas is exclusively owned by the
challenge instance being solved.
*/
package engine
