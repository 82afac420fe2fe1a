//go:build tesseract

package main

import _ "github.com/MateuszOrski/ProjektParking/internal/alpr/tesseract"
