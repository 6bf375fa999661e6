// SPDX-License-Identifier: EPL-2.0

package tween

import "errors"

var (
	ErrUnknownEasing = errors.New("unknown easing curve")
)
