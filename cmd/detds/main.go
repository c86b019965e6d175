// Helper commands for a YOLO object detection dataset: conversion to COCO, Pascal VOC, KITTI
// and TFRecord, drawing labels onto images, dataset statistics and random sample labels.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sensorable/detds"
)

type command struct {
	name    string
	summary string
	run     func(args []string)
}

var commands = []command{
	{"convert", "convert a YOLO label directory to one COCO JSON file", runConvert},
	{"voc", "convert a YOLO label directory to Pascal VOC XML files", runVOC},
	{"kitti", "convert a YOLO label directory to KITTI label files", runKITTI},
	{"tfrecord", "convert a YOLO label directory to TFRecord files", runTFRecord},
	{"render", "draw the labels of an image onto it", runRender},
	{"stats", "print image, annotation and class counts of a dataset", runStats},
	{"sample", "write random labels for an image", runSample},
}

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, "Usage of %s:\n", filepath.Base(os.Args[0]))
	_, _ = fmt.Fprintf(os.Stderr, "  %s <command> [flags]\n\n", filepath.Base(os.Args[0]))
	for _, c := range commands {
		_, _ = fmt.Fprintf(os.Stderr, "  %-10s%s\n", c.name, c.summary)
	}
	_, _ = fmt.Fprintln(os.Stderr, "\nRun a command with -h for its flags.")
}

// newFlagSet creates the flag set for a command, with the flags shared by all commands.
func newFlagSet(name, args string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage of %s %s:\n", filepath.Base(os.Args[0]), name)
		_, _ = fmt.Fprintf(os.Stderr, "  %s\n", args)
		fs.PrintDefaults()
	}
	categories := fs.String("categories", "",
		"The YAML category table `path` (empty uses the built-in 10-class table)")
	return fs, categories
}

func printUsageAndExit(fs *flag.FlagSet, msg ...interface{}) {
	log.Print(msg...)
	fs.Usage()
	os.Exit(1)
}

// loadCategories returns the category table from path, or the default table if path is empty.
func loadCategories(path string) detds.CategoryTable {
	if path == "" {
		return detds.DefaultCategories()
	}
	table, err := detds.LoadCategories(path)
	if err != nil {
		log.Fatal("Failed to load the categories: ", err)
	}
	return table
}

// converterFlags registers the flags shared by the conversion commands.
type converterFlags struct {
	labels, images, imageExt *string
	strict                   *bool
	categories               *string
}

func newConverterFlags(fs *flag.FlagSet, categories *string) converterFlags {
	return converterFlags{
		labels:     fs.String("labels", "", "The YOLO label input directory `path`"),
		images:     fs.String("images", "", "The image directory `path` used to read image sizes (optional)"),
		imageExt:   fs.String("image-ext", ".jpg", "The image file `extension`, including the dot"),
		strict:     fs.Bool("strict", false, "Fail on missing label files and incomplete label lines"),
		categories: categories,
	}
}

func (f converterFlags) converter() detds.Converter {
	c := detds.NewConverter()
	c.Categories = loadCategories(*f.categories)
	c.ImageExt = *f.imageExt
	if *f.strict {
		c.Policy = detds.Strict
	}
	return c
}

func runConvert(args []string) {
	fs, categories := newFlagSet("convert", "-labels <dir> -out <file> [-images <dir>]")
	cf := newConverterFlags(fs, categories)
	out := fs.String("out", "", "The COCO JSON output file `path`")
	_ = fs.Parse(args)

	if *cf.labels == "" || *out == "" {
		printUsageAndExit(fs, "Missing label input or output path argument")
	}

	if _, err := cf.converter().Convert(filepath.Clean(*cf.labels), filepath.Clean(*out), *cf.images); err != nil {
		log.Fatal("Conversion failed: ", err)
	}
}

func runVOC(args []string) {
	fs, categories := newFlagSet("voc", "-labels <dir> -out <dir> [-images <dir>]")
	cf := newConverterFlags(fs, categories)
	out := fs.String("out", "", "The VOC XML output directory `path`")
	_ = fs.Parse(args)

	if *cf.labels == "" || *out == "" {
		printUsageAndExit(fs, "Missing label input or output path argument")
	}
	if filepath.Clean(*cf.labels) == filepath.Clean(*out) {
		printUsageAndExit(fs, "The label input and output paths cannot be identical")
	}

	c := cf.converter()
	data, err := c.LoadDir(filepath.Clean(*cf.labels), *cf.images)
	if err != nil {
		log.Fatal("Failed to parse the input: ", err)
	}
	if err := c.ExportVOC(data, filepath.Clean(*out)); err != nil {
		log.Fatal("Conversion failed: ", err)
	}
}

func runKITTI(args []string) {
	fs, categories := newFlagSet("kitti", "-labels <dir> -out <dir> [-images <dir>]")
	cf := newConverterFlags(fs, categories)
	out := fs.String("out", "", "The KITTI label output directory `path`")
	_ = fs.Parse(args)

	if *cf.labels == "" || *out == "" {
		printUsageAndExit(fs, "Missing label input or output path argument")
	}
	if filepath.Clean(*cf.labels) == filepath.Clean(*out) {
		printUsageAndExit(fs, "The label input and output paths cannot be identical")
	}

	c := cf.converter()
	data, err := c.LoadDir(filepath.Clean(*cf.labels), *cf.images)
	if err != nil {
		log.Fatal("Failed to parse the input: ", err)
	}
	if err := c.ExportKITTI(data, filepath.Clean(*out)); err != nil {
		log.Fatal("Conversion failed: ", err)
	}
}

func runTFRecord(args []string) {
	fs, categories := newFlagSet("tfrecord",
		"-labels <dir> -images <dir> -out <file> -label-map <file> [-num-shards n]")
	cf := newConverterFlags(fs, categories)
	out := fs.String("out", "", "The TFRecord output file `path`")
	labelMap := fs.String("label-map", "", "The label map output file `path`")
	numShards := fs.Int("num-shards", 1, "The number of shard files to create")
	_ = fs.Parse(args)

	if *cf.labels == "" || *cf.images == "" || *out == "" || *labelMap == "" {
		printUsageAndExit(fs, "Missing label, image, output or label map path argument")
	}

	c := cf.converter()
	data, err := c.LoadDir(filepath.Clean(*cf.labels), filepath.Clean(*cf.images))
	if err != nil {
		log.Fatal("Failed to parse the input: ", err)
	}
	err = detds.WriteTFRecord(filepath.Clean(*out), filepath.Clean(*labelMap), data, c.Categories,
		*numShards)
	if err != nil {
		log.Fatal("Conversion failed: ", err)
	}
}

func runRender(args []string) {
	fs, categories := newFlagSet("render", "-image <file> [-labels <file>] [-out <file>]")
	imagePath := fs.String("image", "", "The input image `path`")
	labelPath := fs.String("labels", "",
		"The YOLO label file `path` (default: ../labels/<name>.txt relative to the image)")
	out := fs.String("out", "", "The annotated image output `path` (jpg or png)")
	jpegQuality := fs.Int("jpeg-quality", 95, "The quality to use when encoding JPEGs [1, 100]")
	_ = fs.Parse(args)

	if *imagePath == "" {
		printUsageAndExit(fs, "Missing image path argument")
	}
	if *out == "" {
		log.Print("No -out path given, the annotated image is not saved")
	}

	r := detds.NewRenderer()
	r.Categories = loadCategories(*categories)
	r.JPEGQuality = *jpegQuality
	if _, err := r.Render(*imagePath, *labelPath, *out); err != nil {
		log.Fatal("Rendering failed: ", err)
	}
}

func runStats(args []string) {
	fs, categories := newFlagSet("stats", "[-data <dir>] [-plot <file>] [-chart <file>]")
	dataDir := fs.String("data", ".", "The dataset root `path` containing train/ and valid/")
	plotPath := fs.String("plot", "", "Write a class distribution plot to this `path` (png, svg, pdf)")
	chartPath := fs.String("chart", "", "Write an HTML class distribution chart to this `path`")
	_ = fs.Parse(args)

	table := loadCategories(*categories)
	stats, err := detds.ComputeStatistics(*dataDir, table)
	if err != nil {
		log.Fatal("Failed to compute statistics: ", err)
	}
	if err := stats.WriteReport(os.Stdout); err != nil {
		log.Fatal(err)
	}

	if *plotPath != "" {
		if err := stats.SavePlot(*plotPath, table); err != nil {
			log.Fatal("Failed to save the plot: ", err)
		}
	}
	if *chartPath != "" {
		f, err := os.Create(*chartPath)
		if err != nil {
			log.Fatal("Failed to create the chart file: ", err)
		}
		if err := stats.RenderChart(f, table); err != nil {
			_ = f.Close()
			log.Fatal("Failed to render the chart: ", err)
		}
		if err := f.Close(); err != nil {
			log.Fatal(err)
		}
		log.Printf("Class distribution chart saved to %s", *chartPath)
	}
}

func runSample(args []string) {
	fs, categories := newFlagSet("sample", "-image <file> -out <dir>")
	imagePath := fs.String("image", "", "The input image `path`")
	outDir := fs.String("out", "", "The label output directory `path`")
	_ = fs.Parse(args)

	if *imagePath == "" || *outDir == "" {
		printUsageAndExit(fs, "Missing image or output path argument")
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatal(err)
	}

	s := detds.NewSampler()
	s.Categories = loadCategories(*categories)
	if _, err := s.Generate(*imagePath, *outDir); err != nil {
		log.Fatal("Failed to create the sample annotation: ", err)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	name := os.Args[1]
	for _, c := range commands {
		if c.name == name {
			c.run(os.Args[2:])
			return
		}
	}

	if name != "-h" && name != "-help" && name != "help" {
		log.Printf("Unknown command %q", name)
	}
	usage()
	os.Exit(2)
}
