package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration (info)
		"Segmenting %s with %s prompt at pivot %d":               "%s を %s プロンプトで分割中 (基準フレーム %d)",
		"Extracting frames...":                                   "フレームを抽出中...",
		"Extracted %d frames":                                    "%d フレームを抽出しました",
		"Splitting at frame %d...":                               "フレーム %d で分割中...",
		"Reverse segment: %d frames, forward segment: %d frames": "逆方向: %d フレーム, 順方向: %d フレーム",
		"Propagating masks...":                                   "マスクを伝播中...",
		"Segmentation completed: %d frames":                      "セグメンテーション完了: %d フレーム",
		"Segmentation failed: %s":                                "セグメンテーションに失敗しました: %s",
		"Rendering %s frames...":                                 "%s フレームを描画中...",
		"Failed to render frames: %s":                            "フレームの描画に失敗しました: %s",
		"Assembling video...":                                    "動画を生成中...",
		"Failed to assemble video: %s":                           "動画の生成に失敗しました: %s",
		"Removing object...":                                     "オブジェクトを除去中...",
		"Object removal failed: %s":                              "オブジェクトの除去に失敗しました: %s",
		"Output written to %s":                                   "出力を %s に保存しました",
		"Failed to save annotation preview: %s":                  "注釈プレビューの保存に失敗しました: %s",
		"Cleanup incomplete: %s":                                 "一時ファイルの削除が完了しませんでした: %s",
		"Summary written to %s":                                  "サマリーを %s に保存しました",
		"Interrupted, finishing the current step...":             "中断されました。現在の処理の終了を待っています...",
		"Failed to remove temporary files: %s":                   "一時ファイルの削除に失敗しました: %s",
		"Failed to release segment files: %s":                    "セグメントファイルの削除に失敗しました: %s",

		// Probe
		"Probe failed, validating pivot after extraction: %s": "メタデータを読めないため抽出後に基準フレームを検証します: %s",

		// Lifecycle
		"Created run directory %s": "作業ディレクトリ %s を作成しました",
		"Removed run directory %s": "作業ディレクトリ %s を削除しました",

		// Split stage
		"Split %d frames at pivot %d: reverse=%d forward=%d": "%d フレームを基準 %d で分割: 逆方向=%d 順方向=%d",
		"Pivot is the last frame, forward segment is empty":  "基準が最終フレームのため順方向セグメントは空です",

		// Propagate stage
		"Initialized session %s over %d frames":       "セッション %s を初期化しました (%d フレーム)",
		"Propagating %s segment (%d frames)":          "%s セグメントを伝播中 (%d フレーム)",
		"Propagated %d frames of %s segment in %d ms": "%d フレームを伝播しました (%s, %d ms)",
		"Skipping empty %s segment":                   "空の %s セグメントをスキップします",

		// Reconcile stage
		"Reconciled %d frames around pivot %d": "%d フレームを基準 %d の前後で統合しました",

		// Composite stage
		"Rendering %d %s frames with %d workers": "%d 枚の %s フレームを %d ワーカーで描画中",
		"Rendering completed":                    "描画が完了しました",

		// Assemble stage and ffmpeg
		"%s exists, writing %s instead":      "%s が存在するため %s に書き込みます",
		"Encoding %s at %.1f fps with %s":    "%s を %.1f fps, %s でエンコード中",
		"Extracted %d frames from %s":        "%d フレームを %s から抽出しました",
		"Assembled %s from %s":               "%s を %s から生成しました",
		"Assembled %s from %d listed frames": "%s を %d フレームのリストから生成しました",

		// Helper processes
		"Running %s %s":                                  "%s %s を実行中",
		"Python command finished in %d ms":               "Python コマンドが %d ms で完了しました",
		"Python command failed with code %d after %d ms": "Python コマンドがコード %d で失敗しました (%d ms)",
		"Inpainting %s with %s":                          "%s を %s で補完中",
	})
}
