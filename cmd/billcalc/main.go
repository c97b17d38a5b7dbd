// Command billcalc serves and inspects wedding bill calculators.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
