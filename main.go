// SPDX-License-Identifier: MPL-2.0

package main

import "shed-cli/cmd/shed"

func main() {
	cmd.Execute()
}
