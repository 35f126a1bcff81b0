// Copyright (c) Captchaflow Authors.
// Licensed under the MIT License.

/*
Package types defines the shared data model for the challenge-resolution
engine. It is the lowest-level package in the module and depends on no
other internal package, so every component can agree on the same contracts
without import cycles.

Core types:

  - Variant           — selection / dynamic / squares challenge kinds
  - TargetClass       — detector class ids, plus the TargetUnknown sentinel
  - Challenge         — one classified puzzle instance (immutable)
  - Detection / Box   — classified bounding boxes from the object detector
  - TileSet           — unique 1-based row-major tile indices
  - Error / ErrorCode — structured error taxonomy with a Retryable marker
*/
package types
