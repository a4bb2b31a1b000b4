package multibox

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// VOCLabels returns the class names of the PASCAL VOC dataset indexed
// by encoded class id, with the background class at index 0
func VOCLabels() []string {
	return []string{
		"background",
		"aeroplane", "bicycle", "bird", "boat",
		"bottle", "bus", "car", "cat", "chair",
		"cow", "diningtable", "dog", "horse",
		"motorbike", "person", "pottedplant",
		"sheep", "sofa", "train", "tvmonitor",
	}
}

// LoadLabels reads the class names the model was trained on from the
// given text file.  It should contain one label per line, the first
// line being the background class.
func LoadLabels(file string) ([]string, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening labels file: %w", err)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var labels []string

	for scanner.Scan() {
		labels = append(labels, strings.TrimSpace(scanner.Text()))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading labels file: %w", err)
	}

	return labels, nil
}
