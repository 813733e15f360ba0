// Package main provides localization for the pivotseg CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		catInput:     "入力と出力",
		catPrompt:    "プロンプト",
		catSegmenter: "セグメンテーション",
		catRemover:   "オブジェクト除去",
		catEncoding:  "フレームとエンコード",
		catReport:    "デバッグとレポート",
		catLogging:   "ログ",

		// Root command
		"Segment an object through a video from any frame": "任意のフレームから動画全体のオブジェクトを切り出す",
		"pivotseg propagates a mask from an annotated pivot frame backward to the first frame and forward to the last frame.": "pivotsegは注釈を付けた基準フレームから先頭フレームへ逆方向に、最終フレームへ順方向にマスクを伝播します。",

		// Commands
		"Segment an object and render the result":       "オブジェクトを切り出して結果を描画",
		"Segment an object and erase it from the video": "オブジェクトを切り出して動画から除去",
		"Show version information":                      "バージョン情報を表示",
		"pivotseg version %s":                           "pivotseg バージョン %s",
		"Error: %s":                                     "エラー: %s",

		// Input and output flags
		"Input video path": "入力動画のパス",
		"Directory for output videos (default: next to the input)": "出力動画のディレクトリ（デフォルト: 入力と同じ場所）",
		"YAML configuration file":              "YAML設定ファイル",
		"Parent directory for temporary files": "一時ファイルの親ディレクトリ",
		"Render modes: colored, silhouette, original_on_white": "描画モード: colored, silhouette, original_on_white",

		// Prompt flags
		"Index of the annotated frame":                            "注釈を付けるフレームの番号",
		"Prompt point as x:y (repeatable)":                        "プロンプトの点 x:y（複数指定可）",
		"Point label, 1 foreground or 0 background (repeatable)": "点のラベル 1=前景 0=背景（複数指定可）",
		"Prompt box as x1,y1,x2,y2":                               "プロンプトの矩形 x1,y1,x2,y2",
		"Object id assigned to the prompt":                        "プロンプトに割り当てるオブジェクトID",

		// Segmenter flags
		"Python interpreter for helper processes":           "補助プロセス用のPythonインタプリタ",
		"SAM 2 checkpoint path":                             "SAM 2 チェックポイントのパス",
		"SAM 2 model config":                                "SAM 2 モデル設定",
		"Inference device (cuda, mps, cpu)":                 "推論デバイス（cuda, mps, cpu）",
		"Run the reverse and forward sessions concurrently": "逆方向と順方向のセッションを並行実行",

		// Removal flags
		"Inpainting script path":     "補完スクリプトのパス",
		"Inpainting model name":      "補完モデル名",
		"Inpainting checkpoint path": "補完チェックポイントのパス",

		// Encoding flags
		"Path to ffmpeg":              "ffmpegのパス",
		"Frame rate of output videos": "出力動画のフレームレート",
		"Compositor worker count":     "合成ワーカー数",

		// Debug and reporting flags
		"Save intermediate results":                 "中間結果を保存",
		"Directory for debug output":                "デバッグ出力のディレクトリ",
		"Write a Markdown run summary to this path": "Markdown形式の実行サマリーを書き出すパス",
		"Write Prometheus metrics to this textfile": "Prometheusメトリクスを書き出すテキストファイル",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "すべてのログ出力を抑制",

		// Summary
		"Segmentation Summary": "セグメンテーション結果",
		"Input":                "入力",
		"Item":                 "項目",
		"Value":                "値",
		"Video":                "動画",
		"Frames":               "フレーム数",
		"Frame Size":           "フレームサイズ",
		"Frame Rate":           "フレームレート",
		"Codec":                "コーデック",
		"Kind":                 "種類",
		"points":               "点",
		"box":                  "矩形",
		"Pivot Frame":          "基準フレーム",
		"Box":                  "矩形",
		"Points":               "点の数",
		"Object ID":            "オブジェクトID",
		"Segments":             "セグメント",
		"Direction":            "方向",
		"Range":                "範囲",
		"reverse":              "逆方向",
		"forward":              "順方向",
		"Stage Timings":        "ステージ所要時間",
		"Stage":                "ステージ",
		"Duration":             "所要時間",
		"Total":                "合計",
		"Outputs":              "出力",
		"Path":                 "パス",
		"Size":                 "サイズ",
		"colored":              "カラー重畳",
		"silhouette":           "シルエット",
		"original_on_white":    "白背景",
		"removed":              "除去済み",
		"Settings":             "設定",
		"Sequential":           "逐次",
		"Concurrent":           "並行",
		"Sessions":             "セッション",
		"Workers":              "ワーカー数",
		"Device":               "デバイス",
		"Encoding":             "エンコード",
		"Generated at":         "生成日時",
	})
}
