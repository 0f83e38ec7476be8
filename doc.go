// Package fim 提供基于轮询的文件完整性监控（File Integrity Monitoring）。
//
// 核心特点：
//   - 对目录树下的每个文件计算SHA-256哈希，建立"已知良好"的基线
//   - 周期性重新扫描，把当前状态与基线对比，报告新增（NEW）、修改（MODIFIED）、删除（DELETED）
//   - 对正在写入的文件做稳定化处理（Stabilizer）：有限次重试，直到连续两次哈希相同
//   - 文件消失或无权限读取属于正常的瞬时情况，不会导致崩溃，也不会被误报为删除
//   - 隐藏目录、__pycache__、.venv 等目录以及程序自身的文件（程序、基线文件）不参与监控
//   - 基线可保存为文本文件（每行 "绝对路径|哈希"）或SQLite数据库
//
// 注意：
//   - 检测延迟至少为一个轮询间隔；这不是实时监控，不依赖文件系统事件
//   - 基线文件本身没有签名保护；监控期间只会在它被改动时记录一条警告（BaselineGuard）
//   - 监控期间基线在内存中原地更新，已经报告过的变更不会重复报告；
//     退出时内存中的变更被丢弃，不会写回基线文件
//   - 一个文件如果一直存在但始终无法读取（例如权限被收回），它既不会被报告为修改也不会被报告为删除
//
// 推荐使用方式：
//  1. 通过 LoadConfig 或 DefaultConfig 得到 Config
//  2. 用 Config.Exclusions 与 Config.OpenStore 得到排除规则与基线存储
//  3. 通过 NewMonitor 创建 Monitor
//  4. 调用 CreateBaseline() 建立基线
//  5. 调用 Run(ctx) 开始监控，取消 ctx 结束监控
//
// 并发模型：
//   - 扫描、哈希、对比、报告在同一个goroutine里顺序执行，两轮之间不会重叠
//   - 唯一的等待点是轮询间隔与稳定化的重试间隔，都可以被 ctx 打断
//   - 不使用文件锁；并发写入只通过稳定化策略来容忍
package fim
